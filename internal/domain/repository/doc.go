// Package repository define las interfaces de repositorio de dominio.
//
// Estas interfaces representan el cache off-chain del sistema, independiente del
// almacenamiento subyacente (MongoDB, PostgreSQL o memoria). La fuente de verdad
// para identificadores y autorizaciones es siempre el contrato on-chain.
//
// Las implementaciones concretas viven en internal/store/adapters/.
//
//	┌─────────────────────────────────────────────────────┐
//	│           Services / Controllers                    │
//	└─────────────────────────────────────────────────────┘
//	                        │
//	                        ▼
//	┌─────────────────────────────────────────────────────┐
//	│        domain/repository (interfaces)               │
//	│  ConsentRepository, ProfileRepository, ...          │
//	└─────────────────────────────────────────────────────┘
//	                        │
//	         ┌──────────────┼──────────────┐
//	         ▼              ▼              ▼
//	┌─────────────┐  ┌─────────────┐  ┌─────────────┐
//	│  adapters/  │  │  adapters/  │  │  adapters/  │
//	│    mongo    │  │     pg      │  │   memory    │
//	└─────────────┘  └─────────────┘  └─────────────┘
//
// Convenciones:
//   - Context siempre es el primer parámetro
//   - Direcciones se guardan en forma checksum (EIP-55)
//   - Errores de dominio están en errors.go
package repository
