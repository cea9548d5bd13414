package main

import (
	"github.com/jessevdk/go-flags"
	"os"
	"os/user"
	"path/filepath"
	"strings"
)

const (
	defaultRpcServer    = "localhost:10009"
	defaultLndDir       = "~/.lnd"
	defaultTlsCertPath  = defaultLndDir + "/tls.cert"
	defaultMacaroonPath = defaultLndDir + "/data/chain/bitcoin/mainnet/admin.macaroon"
)

type config struct {
	ShowVersion  bool   `short:"v" long:"version" description:"Display version information and exit."`
	Debug        bool   `long:"debug" description:"Start in debug mode."`
	RpcServer    string `long:"rpcserver" description:"host:port of ln daemon"`
	MacaroonPath string `long:"macaroonpath" description:"path to macaroon file"`
	TlsCertPath  string `long:"tlscertpath" description:"path to TLS certificate"`
}

// loadConfig parses the command line and returns the configuration along
// with the leftover positional arguments.
func loadConfig() (*config, []string, error) {
	defaultCfg := config{
		Debug:        false,
		RpcServer:    defaultRpcServer,
		MacaroonPath: defaultMacaroonPath,
		TlsCertPath:  defaultTlsCertPath,
	}

	preCfg := defaultCfg

	args, err := flags.Parse(&preCfg)
	if err != nil {
		return nil, nil, err
	}

	cfg := preCfg

	cfg.MacaroonPath = cleanAndExpandPath(cfg.MacaroonPath)
	cfg.TlsCertPath = cleanAndExpandPath(cfg.TlsCertPath)

	return &cfg, args, nil
}

// cleanAndExpandPath expands environment variables and leading ~ in the
// passed path, cleans the result, and returns it.
// This function is taken from https://github.com/btcsuite/btcd
func cleanAndExpandPath(path string) string {
	if path == "" {
		return ""
	}

	// Expand initial ~ to OS specific home directory.
	if strings.HasPrefix(path, "~") {
		var homeDir string
		user, err := user.Current()
		if err == nil {
			homeDir = user.HomeDir
		} else {
			homeDir = os.Getenv("HOME")
		}

		path = strings.Replace(path, "~", homeDir, 1)
	}

	// NOTE: The os.ExpandEnv doesn't work with Windows-style %VARIABLE%,
	// but the variables can still be expanded via POSIX-style $VARIABLE.
	return filepath.Clean(os.ExpandEnv(path))
}
