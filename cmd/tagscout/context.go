package main

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"tagscout/internal/api"
	"tagscout/internal/config"
	"tagscout/internal/daemonrun"
	"tagscout/internal/logging"
)

// bootstrapComponents builds the lookup stack for one-shot commands.
var bootstrapComponents = func(cfg *config.Config, logger *slog.Logger) (*daemonrun.Components, error) {
	return daemonrun.Bootstrap(cfg, logger)
}

type commandContext struct {
	addrFlag    *string
	tokenFlag   *string
	configFlag  *string
	verboseFlag *bool

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(addrFlag, tokenFlag, configFlag *string, verboseFlag *bool) *commandContext {
	return &commandContext{
		addrFlag:    addrFlag,
		tokenFlag:   tokenFlag,
		configFlag:  configFlag,
		verboseFlag: verboseFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		cfg, _, _, err := config.Load(c.configPath())
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) configPath() string {
	if c.configFlag == nil {
		return ""
	}
	return strings.TrimSpace(*c.configFlag)
}

// logger returns a console logger on stderr. Only warnings are shown unless
// --verbose is set.
func (c *commandContext) logger(cmd *cobra.Command) *slog.Logger {
	level := "warn"
	if c.verboseFlag != nil && *c.verboseFlag {
		level = "debug"
	}
	logger, err := logging.New(logging.Options{
		Level:       level,
		Format:      "console",
		OutputPaths: []string{"stderr"},
	})
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "warn: console logger unavailable: %v\n", err)
		return logging.NewNop()
	}
	return logger
}

func (c *commandContext) apiClient() (*api.Client, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	addr := ""
	if c.addrFlag != nil {
		addr = strings.TrimSpace(*c.addrFlag)
	}
	if addr == "" {
		addr = dialAddress(cfg.Paths.APIBind)
	}
	token := cfg.Paths.APIToken
	if c.tokenFlag != nil && strings.TrimSpace(*c.tokenFlag) != "" {
		token = *c.tokenFlag
	}
	return api.NewClient(addr, api.WithToken(token))
}

// dialAddress turns a listen address into one a client can dial; wildcard
// hosts become loopback.
func dialAddress(bind string) string {
	host, port, err := net.SplitHostPort(strings.TrimSpace(bind))
	if err != nil {
		return bind
	}
	switch host {
	case "", "0.0.0.0", "::":
		host = "127.0.0.1"
	}
	return net.JoinHostPort(host, port)
}

func wrapDaemonError(err error, addr string) error {
	if errors.Is(err, api.ErrDaemonUnavailable) {
		return fmt.Errorf("connect to daemon at %s: not reachable; start it with `tagscout daemon` or tagscoutd", addr)
	}
	return err
}

func (c *commandContext) daemonAddress() string {
	if c.addrFlag != nil && strings.TrimSpace(*c.addrFlag) != "" {
		return strings.TrimSpace(*c.addrFlag)
	}
	if cfg, err := c.ensureConfig(); err == nil {
		return dialAddress(cfg.Paths.APIBind)
	}
	return ""
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
