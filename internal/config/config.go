// Package config loads the configuration of the commands with koanf.
//
// Values are taken from defaults, which are overridden by environment
// variables and those by command line flags. Keys are dot separated.
// An environment variable is mapped to a key by stripping the prefix,
// lowering its case and replacing underscores by dots, so
// CONDSTRESS_TIMEOUT_MIN sets timeout.min. Flags are named like keys.
package config

import (
	"flag"
	"sort"
	"strings"

	"github.com/knadh/koanf"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"gopkg.in/errgo.v1"
)

const delim = "."

type Config struct {
	k      *koanf.Koanf
	prefix string
}

// New creates a configuration with defaults. The environment prefix is
// derived from name, like CONDSTRESS_ for condstress.
func New(name string, defaults map[string]interface{}) (*Config, error) {
	c := &Config{
		k:      koanf.New(delim),
		prefix: strings.ToUpper(name) + "_",
	}
	if err := c.k.Load(confmap.Provider(defaults, delim), nil); err != nil {
		return nil, errgo.Notef(err, "cannot load defaults")
	}
	return c, nil
}

func (c *Config) Prefix() string {
	return c.prefix
}

// LoadEnv overrides values with environment variables.
func (c *Config) LoadEnv() error {
	err := c.k.Load(env.Provider(c.prefix, delim, func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, c.prefix)), "_", delim)
	}), nil)
	if err != nil {
		return errgo.Notef(err, "cannot load environment")
	}
	return nil
}

// LoadFlags overrides values with the flags explicitly set on the
// parsed flag set.
func (c *Config) LoadFlags(fs *flag.FlagSet) error {
	if !fs.Parsed() {
		return errgo.Newf("flags of %s not parsed", fs.Name())
	}
	values := map[string]interface{}{}
	fs.Visit(func(f *flag.Flag) {
		values[f.Name] = f.Value.String()
	})
	if err := c.k.Load(confmap.Provider(values, delim), nil); err != nil {
		return errgo.Notef(err, "cannot load flags")
	}
	return nil
}

// Flags declares a flag for every default key on fs. The flag values
// are not used directly, they are picked up by LoadFlags.
func (c *Config) Flags(fs *flag.FlagSet) {
	for _, key := range c.Keys() {
		if fs.Lookup(key) == nil {
			fs.String(key, c.k.String(key), "sets "+key)
		}
	}
}

func (c *Config) Keys() []string {
	keys := c.k.Keys()
	sort.Strings(keys)
	return keys
}

func (c *Config) String(key string) string {
	return c.k.String(key)
}

// Unmarshal decodes the configuration into a struct tagged with koanf.
func (c *Config) Unmarshal(target interface{}) error {
	if err := c.k.Unmarshal("", target); err != nil {
		return errgo.Notef(err, "invalid configuration")
	}
	return nil
}

// Load creates a configuration for the command name, declares its flags
// on fs, parses args and decodes everything into target.
func Load(name string, defaults map[string]interface{}, fs *flag.FlagSet, args []string, target interface{}) (*Config, error) {
	c, err := New(name, defaults)
	if err != nil {
		return nil, err
	}
	if err := c.LoadEnv(); err != nil {
		return nil, err
	}
	c.Flags(fs)
	if err := fs.Parse(args); err != nil {
		return nil, errgo.Mask(err, errgo.Any)
	}
	if err := c.LoadFlags(fs); err != nil {
		return nil, err
	}
	if err := c.Unmarshal(target); err != nil {
		return nil, err
	}
	return c, nil
}
