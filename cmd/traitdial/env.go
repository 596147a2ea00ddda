package main

import "os"

func envWithConfigPath(path string) func(string) string {
	return func(key string) string {
		if key == "TRAITDIAL_CONFIG_PATH" && path != "" {
			return path
		}
		return os.Getenv(key)
	}
}
