package config

import "fmt"

// Origin names the layer a resolved setting came from.
type Origin string

const (
	OriginDefault Origin = "default"
	OriginFile    Origin = "file"
	OriginEnv     Origin = "env"
)

// Setting is one resolved, non-secret config key as shown by `config show`.
type Setting struct {
	Key    string
	Value  string
	Origin Origin
	EnvVar string
}

// Show resolves every non-secret key and reports which layer supplied it.
// The result is not validated, so a broken configuration can still be
// inspected.
func Show() ([]Setting, error) {
	f, err := openSettings(configFilePath())
	if err != nil {
		return nil, err
	}
	return showWith(f)
}

func showWith(f *settingsFile) ([]Setting, error) {
	cfg, err := resolve(f)
	if err != nil {
		return nil, err
	}
	var out []Setting
	for _, s := range specs {
		if s.secret {
			continue
		}
		origin := OriginDefault
		if _, ok := envValue(s); ok {
			origin = OriginEnv
		} else if _, ok := f.lookup(s.key); ok {
			origin = OriginFile
		}
		out = append(out, Setting{
			Key:    s.key,
			Value:  fmt.Sprintf("%v", s.extract(cfg)),
			Origin: origin,
			EnvVar: s.env,
		})
	}
	return out, nil
}

// SetKey persists value for key in the config file.
func SetKey(key, value string) error {
	f, err := openSettings(configFilePath())
	if err != nil {
		return err
	}
	return setKeyIn(f, key, value)
}

// UnsetKey removes key from the config file so the default applies again.
// It reports whether the key was set.
func UnsetKey(key string) (bool, error) {
	f, err := openSettings(configFilePath())
	if err != nil {
		return false, err
	}
	return unsetKeyIn(f, key)
}

func writableSpec(key string) (keySpec, error) {
	s, ok := lookupSpec(key)
	if !ok {
		return keySpec{}, fmt.Errorf("unknown config key %q", key)
	}
	if s.secret {
		return keySpec{}, fmt.Errorf("%s is a secret; set it with the %s environment variable", key, s.env)
	}
	return s, nil
}

func setKeyIn(f *settingsFile, key, value string) error {
	s, err := writableSpec(key)
	if err != nil {
		return err
	}
	v, err := s.parse(value)
	if err != nil {
		return err
	}
	return f.set(key, v)
}

func unsetKeyIn(f *settingsFile, key string) (bool, error) {
	if _, err := writableSpec(key); err != nil {
		return false, err
	}
	return f.unset(key)
}
