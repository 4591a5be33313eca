// Package config provides user configuration management for mcparam.
//
// Settings live in a YAML file in the platform configuration directory:
//   - Linux: $XDG_CONFIG_HOME/mcparam/config.yaml or $HOME/.config/mcparam/config.yaml
//   - macOS: $HOME/.config/mcparam/config.yaml
//   - Windows: %LOCALAPPDATA%\mcparam\config.yaml
//
// The same directory holds the default parameter store, params.yaml.
//
// # Precedence
//
// Values are resolved in this order, later wins:
//
//  1. Built-in defaults (NewSettings)
//  2. The settings file
//  3. A .env file in the working directory (see LoadDotEnv)
//  4. MCPARAM_* environment variables (see ApplyEnv)
//  5. Command-line flags, applied by the commands themselves
//
// # Usage Example
//
//	settings, err := config.LoadSettings()
//	if err != nil {
//	    return err
//	}
//	settings.Server.Port = 14561
//	if err := settings.SaveDefault(); err != nil {
//	    return err
//	}
package config
