package config

import (
	"errors"
	"flag"
	"net"
	"os"
	"strconv"
	"strings"
	"time"
)

// NetAddress holds structured network address data for host and port.
// It implements the flag.Value interface.
type NetAddress struct {
	Host string
	Port int
}

// ParseFlags parses all configuration flags from the process arguments.
//
// Flags:
//
//	-a server address in format [host]:[port]
//	-r sessions root directory
//	-t archive temp directory
//	-d restore history database DSN
//	-b messaging bridge base URL
//	-k messaging bridge API key
//	-s default slot name
//	-i inbox directory watched for dropped archives
//	-c/-config JSON or YAML file path with configs
//	-validation-timeout readiness deadline (e.g., "25s")
//	-request-timeout request timeout (e.g., "30s", "1m")
func ParseFlags() (*StructuredConfig, error) {
	return parseFlags(os.Args[0], os.Args[1:])
}

func parseFlags(name string, args []string) (*StructuredConfig, error) {
	var serverAddress NetAddress
	var sessionsRoot, tempDir string
	var databaseDSN string
	var bridgeURL, bridgeAPIKey string
	var defaultSlot string
	var inboxDir string
	var configPath string
	var validationTimeout time.Duration
	var requestTimeout time.Duration

	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.Var(&serverAddress, "a", "Net address host:port")
	fs.StringVar(&sessionsRoot, "r", "", "Sessions root directory")
	fs.StringVar(&tempDir, "t", "", "Archive temp directory")
	fs.StringVar(&databaseDSN, "d", "", "Restore history database DSN")
	fs.StringVar(&bridgeURL, "b", "", "Messaging bridge base URL")
	fs.StringVar(&bridgeAPIKey, "k", "", "Messaging bridge API key")
	fs.StringVar(&defaultSlot, "s", "", "Default slot name")
	fs.StringVar(&inboxDir, "i", "", "Inbox directory for dropped archives")
	fs.StringVar(&configPath, "c", "", "Config file path (JSON or YAML)")
	fs.StringVar(&configPath, "config", "", "Config file path (alias)")
	fs.DurationVar(&validationTimeout, "validation-timeout", 0, "Session validation timeout (e.g., 25s)")
	fs.DurationVar(&requestTimeout, "request-timeout", 0, "Request timeout (e.g., 30s, 1m)")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	return &StructuredConfig{
		App: App{
			ValidationTimeout: validationTimeout,
			DefaultSlot:       defaultSlot,
		},
		Storage: Storage{
			Sessions: Sessions{
				Root:    sessionsRoot,
				TempDir: tempDir,
			},
			DB: DB{
				DSN: databaseDSN,
			},
		},
		Server: Server{
			HTTPAddress:    serverAddress.String(),
			RequestTimeout: requestTimeout,
		},
		Adapter: Adapter{
			BridgeURL:    bridgeURL,
			BridgeAPIKey: bridgeAPIKey,
		},
		Workers: Workers{
			InboxDir: inboxDir,
		},
		FilePath: configPath,
	}, nil
}

// String returns a canonical host:port string for a NetAddress.
// If neither Host nor Port are set, it returns an empty string.
func (a *NetAddress) String() string {
	if a.Host == "" && a.Port == 0 {
		return ""
	}

	return a.Host + ":" + strconv.Itoa(a.Port)
}

// Set parses the input string of form host:port and populates the NetAddress.
// It validates the port range, checks IP correctness unless host is "localhost"
// or empty, and returns an error if the format or values are invalid.
func (a *NetAddress) Set(s string) error {
	hostAndPort := strings.Split(s, ":")
	if len(hostAndPort) != 2 {
		return errors.New("need address in a form `host:port`")
	}

	host := hostAndPort[0]
	port, err := strconv.Atoi(hostAndPort[1])
	if err != nil {
		return err
	}

	if port < 1 {
		return errors.New("port number is a positive integer")
	}

	if host != "localhost" && host != "" {
		ip := net.ParseIP(host)
		if ip == nil {
			return errors.New("incorrect IP-address provided")
		}
	}

	a.Host = host
	a.Port = port
	return nil
}
