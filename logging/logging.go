// Package logging builds the process logger installed as the zap global.
package logging

import "go.uber.org/zap"

// New creates the zap logger for the given APP_ENV value. Unknown
// environments get the example logger so local runs stay quiet.
func New(env string) (*zap.Logger, error) {
	switch env {
	case "production":
		return zap.NewProduction()
	case "development":
		return zap.NewDevelopment()
	default:
		return zap.NewExample(), nil
	}
}
