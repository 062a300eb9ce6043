// Package cli implements listctl, a terminal client for the admindash list
// API and its background jobs.
package cli

import (
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/odyssey-erp/admindash/internal/listclient"
)

// Options holds the persistent flags shared by every command.
type Options struct {
	APIBaseURL string
	RedisAddr  string
	Timeout    time.Duration
	Verbose    bool
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// NewRootCommand assembles the listctl command tree.
func NewRootCommand() *cobra.Command {
	opts := &Options{}
	root := &cobra.Command{
		Use:           "listctl",
		Short:         "Browse admindash lists and manage its jobs",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	flags := root.PersistentFlags()
	flags.StringVar(&opts.APIBaseURL, "api", envOr("API_BASE_URL", "http://127.0.0.1:8080"), "admindash server base URL")
	flags.StringVar(&opts.RedisAddr, "redis", envOr("REDIS_ADDR", "127.0.0.1:6379"), "Redis address used by the job queue")
	flags.DurationVar(&opts.Timeout, "timeout", listclient.DefaultTimeout, "HTTP request timeout")
	flags.BoolVarP(&opts.Verbose, "verbose", "v", false, "print the query string of every request to stderr")

	root.AddCommand(
		newProductsCommand(opts),
		newTasksCommand(opts),
		newJobsCommand(opts),
	)
	return root
}

func (o *Options) client() (*listclient.Client, error) {
	return listclient.NewClient(o.APIBaseURL, &http.Client{Timeout: o.Timeout})
}
