package cli

import (
	"context"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/meridianqs/estimator-client/internal/client"
	"github.com/meridianqs/estimator-client/internal/config"
)

type GlobalOptions struct {
	ServerUrl string
	Token     string
	DecidedBy string
}

func DefaultGlobalOptions() GlobalOptions {
	o := GlobalOptions{
		ServerUrl: "http://localhost:8090",
		DecidedBy: "estimator-cli",
	}
	// file config first, environment on top
	if fileCfg, err := client.ParseConfigFile(client.DefaultClientConfigPath()); err == nil {
		o.ServerUrl = fileCfg.Service.Server
	}
	if cfg, err := config.New(); err == nil {
		if cfg.Service.Server != "" {
			o.ServerUrl = cfg.Service.Server
		}
		o.Token = cfg.Service.Token
	}
	return o
}

func (o *GlobalOptions) Bind(fs *pflag.FlagSet) {
	fs.StringVarP(&o.ServerUrl, "server-url", "u", o.ServerUrl, "Address of the pipeline API server")
	fs.StringVar(&o.Token, "token", o.Token, "Bearer token for the pipeline API")
	fs.StringVar(&o.DecidedBy, "decided-by", o.DecidedBy, "Actor recorded on workflow commands")
}

func (o *GlobalOptions) Complete(cmd *cobra.Command, args []string) error {
	return nil
}

func (o *GlobalOptions) Validate(args []string) error {
	return nil
}

// Client builds the pipeline client. All calls go through the link-status
// interceptor so commands can report degraded connectivity.
func (o *GlobalOptions) Client() (*client.Interceptor, error) {
	cfg := client.NewDefault()
	cfg.Service.Server = o.ServerUrl

	var token client.TokenFunc
	if o.Token != "" {
		bearer := o.Token
		token = func(ctx context.Context) (string, error) { return bearer, nil }
	}

	p, err := client.NewPipeline(cfg, token)
	if err != nil {
		return nil, err
	}
	return client.NewInterceptor(p), nil
}
