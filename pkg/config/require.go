package config

import "fmt"

func RequireNonEmpty(value, envName string) error {
	if value == "" {
		return fmt.Errorf("missing required env %s", envName)
	}
	return nil
}

func RequireMinBytes(value []byte, n int, envName string) error {
	if len(value) == 0 {
		return fmt.Errorf("missing required env %s", envName)
	}
	if len(value) < n {
		return fmt.Errorf("env %s must be at least %d bytes, got %d", envName, n, len(value))
	}
	return nil
}

func RequirePositive[T ~int | ~int64](value T, envName string) error {
	if value <= 0 {
		return fmt.Errorf("env %s must be positive, got %v", envName, value)
	}
	return nil
}
