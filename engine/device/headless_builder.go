package device

import "log/slog"

// HeadlessBuilderOption is a functional option for configuring a Headless device via NewHeadless.
type HeadlessBuilderOption func(*headlessDevice)

// WithLogger sets the logger used to report device misuse.
//
// Parameters:
//   - logger: the logger to use, nil keeps the default
//
// Returns:
//   - HeadlessBuilderOption: a function that sets the logger
func WithLogger(logger *slog.Logger) HeadlessBuilderOption {
	return func(d *headlessDevice) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// WithMaxTextureUnits sets how many texture units ActiveTexture accepts.
//
// Parameters:
//   - units: the number of units, values <= 0 keep the default of 32
//
// Returns:
//   - HeadlessBuilderOption: a function that sets the unit count
func WithMaxTextureUnits(units int) HeadlessBuilderOption {
	return func(d *headlessDevice) {
		if units > 0 {
			d.maxTextureUnits = units
		}
	}
}
