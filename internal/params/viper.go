package params

import "github.com/spf13/viper"

// FromViper overlays the keys found under section (for example "sphere") onto base.
// Config files, environment variables and bound flags all resolve through v.
func FromViper(v *viper.Viper, section string, base Parameters) Parameters {
	p := base
	for _, key := range Keys {
		full := key
		if section != "" {
			full = section + "." + key
		}
		if !v.IsSet(full) {
			continue
		}
		p.Set(key, v.GetString(full))
	}
	return p.Clamp()
}
