package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// StructuredFileConfig is the on-disk shape of a config file. The same
// struct is decoded from JSON and from YAML.
type StructuredFileConfig struct {
	App struct {
		ValidationTimeout Duration `json:"validation_timeout" yaml:"validation_timeout"`
		InfoPollInterval  Duration `json:"info_poll_interval" yaml:"info_poll_interval"`
		InfoTimeout       Duration `json:"info_timeout" yaml:"info_timeout"`
		DefaultSlot       string   `json:"default_slot" yaml:"default_slot"`
		Version           string   `json:"version" yaml:"version"`
	} `json:"app,omitempty" yaml:"app,omitempty"`

	Storage struct {
		Sessions struct {
			Root           string `json:"root" yaml:"root"`
			TempDir        string `json:"temp_dir" yaml:"temp_dir"`
			MaxArchiveSize int64  `json:"max_archive_size" yaml:"max_archive_size"`
			KeepExisting   bool   `json:"keep_existing" yaml:"keep_existing"`
		} `json:"sessions,omitempty" yaml:"sessions,omitempty"`

		DB struct {
			DSN string `json:"dsn" yaml:"dsn"`
		} `json:"db,omitempty" yaml:"db,omitempty"`
	} `json:"storage,omitempty" yaml:"storage,omitempty"`

	Server struct {
		HTTPAddress     string   `json:"http_address" yaml:"http_address"`
		RequestTimeout  Duration `json:"request_timeout" yaml:"request_timeout"`
		EventBufferSize int      `json:"event_buffer_size" yaml:"event_buffer_size"`
	} `json:"server,omitempty" yaml:"server,omitempty"`

	Adapter struct {
		BridgeURL       string   `json:"bridge_url" yaml:"bridge_url"`
		BridgeAPIKey    string   `json:"bridge_api_key" yaml:"bridge_api_key"`
		RequestTimeout  Duration `json:"request_timeout" yaml:"request_timeout"`
		PollInterval    Duration `json:"poll_interval" yaml:"poll_interval"`
		DownloadTimeout Duration `json:"download_timeout" yaml:"download_timeout"`
	} `json:"adapter,omitempty" yaml:"adapter,omitempty"`

	Workers struct {
		InboxDir      string   `json:"inbox_dir" yaml:"inbox_dir"`
		InboxDebounce Duration `json:"inbox_debounce" yaml:"inbox_debounce"`
	} `json:"workers,omitempty" yaml:"workers,omitempty"`
}

func parseJSON(jsonFilePath string) (*StructuredConfig, error) {
	jsonFile, err := os.Open(jsonFilePath)
	if err != nil {
		return nil, fmt.Errorf("error reading a json file: %w", err)
	}
	defer jsonFile.Close()

	var fileCfg StructuredFileConfig
	if err := json.NewDecoder(jsonFile).Decode(&fileCfg); err != nil {
		return nil, fmt.Errorf("error decoding json configs: %w", err)
	}

	return fileCfg.toStructured(), nil
}

func (f *StructuredFileConfig) toStructured() *StructuredConfig {
	return &StructuredConfig{
		App: App{
			ValidationTimeout: time.Duration(f.App.ValidationTimeout),
			InfoPollInterval:  time.Duration(f.App.InfoPollInterval),
			InfoTimeout:       time.Duration(f.App.InfoTimeout),
			DefaultSlot:       f.App.DefaultSlot,
			Version:           f.App.Version,
		},
		Storage: Storage{
			Sessions: Sessions{
				Root:           f.Storage.Sessions.Root,
				TempDir:        f.Storage.Sessions.TempDir,
				MaxArchiveSize: f.Storage.Sessions.MaxArchiveSize,
				KeepExisting:   f.Storage.Sessions.KeepExisting,
			},
			DB: DB{
				DSN: f.Storage.DB.DSN,
			},
		},
		Server: Server{
			HTTPAddress:     f.Server.HTTPAddress,
			RequestTimeout:  time.Duration(f.Server.RequestTimeout),
			EventBufferSize: f.Server.EventBufferSize,
		},
		Adapter: Adapter{
			BridgeURL:       f.Adapter.BridgeURL,
			BridgeAPIKey:    f.Adapter.BridgeAPIKey,
			RequestTimeout:  time.Duration(f.Adapter.RequestTimeout),
			PollInterval:    time.Duration(f.Adapter.PollInterval),
			DownloadTimeout: time.Duration(f.Adapter.DownloadTimeout),
		},
		Workers: Workers{
			InboxDir:      f.Workers.InboxDir,
			InboxDebounce: time.Duration(f.Workers.InboxDebounce),
		},
	}
}

// Duration is a wrapper around time.Duration that supports JSON and YAML
// unmarshaling from strings like "1h", "30s".
type Duration time.Duration

func (d *Duration) UnmarshalJSON(b []byte) error {
	var v interface{}
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}

	switch value := v.(type) {
	case float64:
		*d = Duration(time.Duration(value))
		return nil
	case string:
		tmp, err := time.ParseDuration(value)
		if err != nil {
			return err
		}
		*d = Duration(tmp)
		return nil
	default:
		return json.Unmarshal(b, (*time.Duration)(d))
	}
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}
