// Package cli is the stockctl command tree. It drives the inventory API
// through the same authenticated client the console uses.
package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/stockfront/internal/credential"
	"github.com/MrSnakeDoc/stockfront/internal/httpclient"
	"github.com/MrSnakeDoc/stockfront/internal/inventory"
	"github.com/MrSnakeDoc/stockfront/internal/logger"
	"github.com/MrSnakeDoc/stockfront/internal/version"
)

type options struct {
	baseURL        string
	timeout        time.Duration
	credentialFile string
	tokenKey       string
	output         string
	verbose        bool
}

// client builds the inventory client for one invocation. The credential file
// is read on every request, so a login that lands mid-run is picked up.
func (o *options) client() (*inventory.Client, error) {
	log := logger.Nop()
	if o.verbose {
		log = logger.New("debug", true)
	}

	api, err := httpclient.New(
		httpclient.Config{BaseURL: o.baseURL, Timeout: o.timeout},
		httpclient.WithInterceptor(httpclient.Bearer(credential.NewFileStore(o.credentialFile, o.tokenKey))),
		httpclient.WithLogger(log),
	)
	if err != nil {
		return nil, err
	}
	return inventory.New(api), nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// NewRootCmd assembles stockctl. Flag defaults come from the same
// environment variables the console reads.
func NewRootCmd() *cobra.Command {
	o := &options{}

	root := &cobra.Command{
		Use:           "stockctl",
		Short:         "Operate the inventory API from the command line",
		Version:       version.String(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			switch o.output {
			case outputTable, outputJSON, outputYAML:
				return nil
			default:
				return fmt.Errorf("unsupported output %q (want table, json or yaml)", o.output)
			}
		},
	}

	timeout := httpclient.DefaultTimeout
	if d, err := time.ParseDuration(os.Getenv("STOCKFRONT_API_TIMEOUT")); err == nil {
		timeout = d
	}

	pf := root.PersistentFlags()
	pf.StringVar(&o.baseURL, "base-url", envOr("STOCKFRONT_API_BASE_URL", "http://localhost:8000"), "inventory API base URL")
	pf.DurationVar(&o.timeout, "timeout", timeout, "default request timeout")
	pf.StringVar(&o.credentialFile, "credential-file", envOr("STOCKFRONT_CREDENTIAL_FILE", "storage.json"), "JSON file holding the bearer credential")
	pf.StringVar(&o.tokenKey, "token-key", envOr("STOCKFRONT_TOKEN_KEY", credential.DefaultKey), "key of the credential inside the file")
	pf.StringVarP(&o.output, "output", "o", outputTable, "output format: table, json or yaml")
	pf.BoolVarP(&o.verbose, "verbose", "v", false, "log outbound requests")

	root.AddCommand(
		newProductsCmd(o),
		newStockCmd(o),
		newTotalCmd(o),
		newRegisterCmd(o),
		newRoutesCmd(o),
	)
	return root
}

// Execute runs stockctl and returns the process exit code.
func Execute() int {
	root := NewRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintf(root.ErrOrStderr(), "Error: %v\n", err)
		return 1
	}
	return 0
}
