package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/dropDatabas3/hellodid/internal/app"
	"github.com/dropDatabas3/hellodid/internal/canonhash"
	"github.com/dropDatabas3/hellodid/internal/config"
	"github.com/dropDatabas3/hellodid/internal/observability/logger"
	"github.com/dropDatabas3/hellodid/internal/validation"
)

func main() {
	_ = godotenv.Load()
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}

func newRootCmd(out io.Writer) *cobra.Command {
	var (
		baseURL = envOr("HELLODID_API_URL", "http://localhost:4000")
		format  = envOr("HELLODID_OUT", "text")
		timeout = 3 * time.Minute
	)
	cl := &client{Out: out}

	root := &cobra.Command{
		Use:           "hellodid",
		Short:         "CLI para el backend de identidad descentralizada",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			cl.BaseURL = baseURL
			cl.OutFormat = format
			cl.HTTP = &http.Client{Timeout: timeout}
		},
	}
	root.SetOut(out)
	root.PersistentFlags().StringVar(&baseURL, "api-url", baseURL, "URL base del API (env HELLODID_API_URL)")
	root.PersistentFlags().StringVar(&format, "out", format, "Formato de salida: json|text")
	root.PersistentFlags().DurationVar(&timeout, "timeout", timeout, "Timeout HTTP (incluye la confirmación on-chain)")

	root.AddCommand(
		hashPurposeCmd(out),
		normalizeCmd(out),
		requestCmd(cl),
		approveCmd(cl),
		consentsCmd(cl),
		reconcileCmd(out),
	)
	return root
}

func hashPurposeCmd(out io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "hash-purpose <json>",
		Short: "Imprime el hash canónico de un purpose",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw := json.RawMessage(args[0])
			if !json.Valid(raw) {
				return errors.New("purpose no es JSON válido")
			}
			h, err := canonhash.SumHex(raw)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, h)
			return nil
		},
	}
}

func normalizeCmd(out io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "normalize <address>",
		Short: "Imprime la dirección en forma checksum",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, err := validation.ChecksumAddress(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(out, addr)
			return nil
		},
	}
}

func requestCmd(cl *client) *cobra.Command {
	var requester, subject, purpose string
	cmd := &cobra.Command{
		Use:   "request",
		Short: "Solicita acceso a los datos de un subject (POST /requestAccess)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if requester == "" || subject == "" || purpose == "" {
				return errors.New("--requester, --subject y --purpose son requeridos")
			}
			if !json.Valid([]byte(purpose)) {
				return errors.New("--purpose no es JSON válido")
			}
			payload := map[string]any{
				"requester": requester,
				"subject":   subject,
				"purpose":   json.RawMessage(purpose),
			}
			return cl.call(cmd.Context(), "request", http.MethodPost, "/requestAccess", payload)
		},
	}
	cmd.Flags().StringVar(&requester, "requester", "", "Dirección del solicitante")
	cmd.Flags().StringVar(&subject, "subject", "", "Dirección del dueño de los datos")
	cmd.Flags().StringVar(&purpose, "purpose", "", `Purpose en JSON (ej. '{"scope":"kyc"}')`)
	return cmd
}

func approveCmd(cl *client) *cobra.Command {
	var requestID, subject, signature, proof string
	cmd := &cobra.Command{
		Use:   "approve",
		Short: "Aprueba una solicitud de acceso (POST /consent)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if requestID == "" || subject == "" || signature == "" {
				return errors.New("--request-id, --subject y --signature son requeridos")
			}
			payload := map[string]any{
				"requestId": requestID,
				"subject":   subject,
				"signature": signature,
			}
			if proof != "" {
				payload["optionalProof"] = proof
			}
			return cl.call(cmd.Context(), "approve", http.MethodPost, "/consent", payload)
		},
	}
	cmd.Flags().StringVar(&requestID, "request-id", "", "requestId on-chain (bytes32 hex)")
	cmd.Flags().StringVar(&subject, "subject", "", "Dirección del subject")
	cmd.Flags().StringVar(&signature, "signature", "", "Firma del subject (hex)")
	cmd.Flags().StringVar(&proof, "proof", "", "Prueba opcional (hex)")
	return cmd
}

func consentsCmd(cl *client) *cobra.Command {
	return &cobra.Command{
		Use:   "consents <address>",
		Short: "Lista los consentimientos donde participa una dirección",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cl.call(cmd.Context(), "consents", http.MethodGet, "/consents/"+url.PathEscape(args[0]), nil)
		},
	}
}

// reconcileCmd arma la app contra el store y la cadena configurados y
// corre una sola pasada, sin levantar el servidor.
func reconcileCmd(out io.Writer) *cobra.Command {
	var cfgPath string
	var batch int
	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Completa los requestId pendientes (una pasada)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgPath)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			logger.Init(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel, ServiceName: "hellodid-cli"})
			defer func() { _ = logger.Sync() }()

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			a, err := app.New(logger.ToContext(ctx, logger.L()), cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			if batch <= 0 {
				batch = cfg.Reconcile.BatchSize
			}
			res, err := a.Services.Access.Consent.Reconcile(ctx, batch)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "scanned=%d resolved=%d pending=%d failed=%d\n", res.Scanned, res.Resolved, res.Pending, res.Failed)
			return nil
		},
	}
	cmd.Flags().StringVar(&cfgPath, "config", envOr("CONFIG_PATH", "configs/config.yaml"), "Path al config.yaml")
	cmd.Flags().IntVar(&batch, "batch", 0, "Máximo de registros por pasada (default: reconcile.batch_size)")
	return cmd
}

func envOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
