package renderer

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Settings is the file form of a RenderContext plus the viewport size.
//
//	fog:
//	  color: [0.5, 0.5, 0.5, 1]
//	  start: 100
//	  falloff: 1
//	light:
//	  position: [0, 10, 0]
//	  shininess: 50
//	viewport:
//	  width: 1280
//	  height: 720
type Settings struct {
	Fog      FogSettings      `yaml:"fog"`
	Light    LightSettings    `yaml:"light"`
	Viewport ViewportSettings `yaml:"viewport"`
}

// FogSettings configures distance fog.
type FogSettings struct {
	Color   [4]float32 `yaml:"color"`
	Start   float32    `yaml:"start"`
	Falloff float32    `yaml:"falloff"`
}

// LightSettings configures the point light and the lighting model colours.
type LightSettings struct {
	Position  [3]float32 `yaml:"position"`
	Ambient   [3]float32 `yaml:"ambient"`
	Diffuse   [3]float32 `yaml:"diffuse"`
	Specular  [3]float32 `yaml:"specular"`
	Shininess float32    `yaml:"shininess"`
}

// ViewportSettings is the initial drawing surface size.
type ViewportSettings struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// DefaultSettings returns the values NewRenderContext uses and a 1280x720 viewport.
func DefaultSettings() Settings {
	rc := NewRenderContext()
	return Settings{
		Fog: FogSettings{Color: rc.FogColor, Start: rc.FogStart, Falloff: rc.FogFalloff},
		Light: LightSettings{
			Ambient:   rc.Ambient,
			Diffuse:   rc.Diffuse,
			Specular:  rc.Specular,
			Shininess: rc.Shininess,
		},
		Viewport: ViewportSettings{Width: 1280, Height: 720},
	}
}

// LoadSettings decodes YAML settings. Keys missing from r keep their default values.
//
// Parameters:
//   - r: the YAML source
//
// Returns:
//   - Settings: the decoded settings
//   - error: error if r is not valid YAML for Settings
func LoadSettings(r io.Reader) (Settings, error) {
	s := DefaultSettings()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil && !errors.Is(err, io.EOF) {
		return Settings{}, fmt.Errorf("failed to decode render settings: %w", err)
	}
	if s.Viewport.Width <= 0 || s.Viewport.Height <= 0 {
		return Settings{}, fmt.Errorf("invalid viewport %dx%d", s.Viewport.Width, s.Viewport.Height)
	}
	return s, nil
}

// LoadSettingsFile reads YAML settings from path.
func LoadSettingsFile(path string) (Settings, error) {
	f, err := os.Open(path)
	if err != nil {
		return Settings{}, fmt.Errorf("failed to open render settings: %w", err)
	}
	defer f.Close()
	return LoadSettings(f)
}

// Apply copies the settings into rc and moves its light node.
//
// Parameters:
//   - rc: the context to update
func (s Settings) Apply(rc *RenderContext) {
	rc.FogColor = s.Fog.Color
	rc.FogStart = s.Fog.Start
	rc.FogFalloff = s.Fog.Falloff
	rc.Ambient = s.Light.Ambient
	rc.Diffuse = s.Light.Diffuse
	rc.Specular = s.Light.Specular
	rc.Shininess = s.Light.Shininess
	if rc.Light != nil {
		p := s.Light.Position
		rc.Light.Translation().Set(p[0], p[1], p[2])
	}
}

// Marshal encodes the settings as YAML.
func (s Settings) Marshal() ([]byte, error) {
	return yaml.Marshal(s)
}
