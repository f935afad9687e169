package config

import (
	"fmt"
	"os"

	"github.com/hashicorp/hcl/v2/hclsimple"
)

// fileConfig mirrors the HCL layout:
//
//	default = "main"
//
//	endpoint "main" {
//	  host               = "https://live.luigisbox.com"
//	  public_key         = "..."
//	  private_key        = "..."
//	  connection_timeout = 5
//	  request_timeout    = 5
//	  search_timeout     = 1
//	}
//
// Every attribute is optional at the HCL level so that missing keys surface
// through the same validation path as raw maps.
type fileConfig struct {
	Default   string         `hcl:"default"`
	Endpoints []fileEndpoint `hcl:"endpoint,block"`
}

type fileEndpoint struct {
	Name              string   `hcl:"name,label"`
	Host              *string  `hcl:"host,optional"`
	PublicKey         *string  `hcl:"public_key,optional"`
	PrivateKey        *string  `hcl:"private_key,optional"`
	ConnectionTimeout *float64 `hcl:"connection_timeout,optional"`
	RequestTimeout    *float64 `hcl:"request_timeout,optional"`
	SearchTimeout     *float64 `hcl:"search_timeout,optional"`
}

// LoadFile reads an HCL (or HCL-JSON, by extension) configuration file and
// builds a Registry from it.
func LoadFile(path string) (*Registry, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Load(path, src)
}

// Load parses HCL source. filename selects the syntax (".hcl" or ".json") and
// is used in diagnostics.
func Load(filename string, src []byte) (*Registry, error) {
	var fc fileConfig
	if err := hclsimple.Decode(filename, src, nil, &fc); err != nil {
		return nil, &ConfigurationError{Msg: "failed to parse " + filename, Err: err}
	}

	raw := make(map[string]map[string]any, len(fc.Endpoints))
	for _, ep := range fc.Endpoints {
		if _, dup := raw[ep.Name]; dup {
			return nil, &ConfigurationError{Name: ep.Name, Msg: fmt.Sprintf("duplicate endpoint %q", ep.Name)}
		}
		raw[ep.Name] = ep.toRaw()
	}
	return New(fc.Default, raw)
}

func (ep fileEndpoint) toRaw() map[string]any {
	raw := make(map[string]any, len(requiredKeys))
	if ep.Host != nil {
		raw[KeyHost] = *ep.Host
	}
	if ep.PublicKey != nil {
		raw[KeyPublicKey] = *ep.PublicKey
	}
	if ep.PrivateKey != nil {
		raw[KeyPrivateKey] = *ep.PrivateKey
	}
	if ep.ConnectionTimeout != nil {
		raw[KeyConnectionTimeout] = *ep.ConnectionTimeout
	}
	if ep.RequestTimeout != nil {
		raw[KeyRequestTimeout] = *ep.RequestTimeout
	}
	if ep.SearchTimeout != nil {
		raw[KeySearchTimeout] = *ep.SearchTimeout
	}
	return raw
}
