// Package store provee el registry de adaptadores de almacenamiento off-chain.
//
// Cada adapter (memory, mongo, postgres) se registra en init() y se elige por
// nombre en runtime con OpenAdapter.
package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/dropDatabas3/hellodid/internal/domain/repository"
)

// Adapter es un driver capaz de abrir una conexión.
type Adapter interface {
	// Name retorna el nombre del adapter ("memory", "mongo", "postgres").
	Name() string

	Connect(ctx context.Context, cfg AdapterConfig) (AdapterConnection, error)
}

// AdapterConnection es una conexión activa con sus repositorios.
type AdapterConnection interface {
	Name() string
	Ping(ctx context.Context) error
	Close() error

	Consents() repository.ConsentRepository
	Profiles() repository.ProfileRepository
	Credentials() repository.CredentialRepository
	Audit() repository.AuditRepository
}

// AdapterConfig configuración para conectar a un almacenamiento.
type AdapterConfig struct {
	// Name del adapter: "memory", "mongo", "postgres"
	Name string

	// DSN connection string (mongodb://..., postgres://...)
	DSN string

	// Database nombre de la base (mongo). En postgres va en el DSN.
	Database string

	// Pool settings
	MaxOpenConns int
	MaxIdleConns int

	// Migrate aplica migraciones/índices pendientes al conectar.
	Migrate bool
}

var (
	registryMu sync.RWMutex
	adapters   = make(map[string]Adapter)
)

// RegisterAdapter registra un adapter en el registry global.
// Llamar en init() de cada adapter.
func RegisterAdapter(a Adapter) {
	registryMu.Lock()
	defer registryMu.Unlock()

	name := a.Name()
	if _, exists := adapters[name]; exists {
		panic(fmt.Sprintf("adapter: %q already registered", name))
	}
	adapters[name] = a
}

// GetAdapter obtiene un adapter por nombre.
func GetAdapter(name string) (Adapter, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	a, ok := adapters[name]
	return a, ok
}

// ListAdapters retorna los nombres registrados, ordenados.
func ListAdapters() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(adapters))
	for name := range adapters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// OpenAdapter abre una conexión usando el adapter de cfg.Name.
func OpenAdapter(ctx context.Context, cfg AdapterConfig) (AdapterConnection, error) {
	a, ok := GetAdapter(cfg.Name)
	if !ok {
		return nil, fmt.Errorf("adapter: %q not registered (available: %v)", cfg.Name, ListAdapters())
	}
	return a.Connect(ctx, cfg)
}
