// Package config loads CLI configuration from an optional file and
// environment variables, layered over the library defaults. Flags are
// applied on top by the caller.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/menta2k/smartthumb"
)

// Load returns the analysis configuration, with values from the file at
// path (yaml/json/toml, judged by extension) and from SMARTTHUMB_*
// environment variables overriding the defaults. An empty path skips the
// file entirely.
func Load(path string) (smartthumb.Config, error) {
	def := smartthumb.Default()

	v := viper.New()
	v.SetEnvPrefix("smartthumb")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	v.SetDefault("max-dimension", def.MaxDimension)
	v.SetDefault("min-scale", def.MinScale)
	v.SetDefault("max-scale", def.MaxScale)
	v.SetDefault("scale-step", def.ScaleStep)
	v.SetDefault("step", def.Step)
	v.SetDefault("allow-upscaling", def.AllowUpscaling)
	v.SetDefault("weights.detail", def.Weights.Detail)
	v.SetDefault("weights.saturation", def.Weights.Saturation)
	v.SetDefault("weights.skin", def.Weights.Skin)
	v.SetDefault("weights.boost", def.Weights.Boost)
	v.SetDefault("rule-of-thirds-weight", def.RuleOfThirdsWeight)
	v.SetDefault("face-boost-weight", def.FaceBoostWeight)
	v.SetDefault("face-boost-falloff", def.FaceBoostFalloff)
	v.SetDefault("outside-importance", def.OutsideImportance)
	v.SetDefault("skin.threshold", def.Skin.Threshold)
	v.SetDefault("skin.brightness-min", def.Skin.BrightnessMin)
	v.SetDefault("skin.brightness-max", def.Skin.BrightnessMax)
	v.SetDefault("saturation.threshold", def.Saturation.Threshold)
	v.SetDefault("saturation.brightness-min", def.Saturation.BrightnessMin)
	v.SetDefault("saturation.brightness-max", def.Saturation.BrightnessMax)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return def, fmt.Errorf("reading config file: %w", err)
		}
	}

	cfg := def
	cfg.MaxDimension = v.GetInt("max-dimension")
	cfg.MinScale = v.GetFloat64("min-scale")
	cfg.MaxScale = v.GetFloat64("max-scale")
	cfg.ScaleStep = v.GetFloat64("scale-step")
	cfg.Step = v.GetInt("step")
	cfg.AllowUpscaling = v.GetBool("allow-upscaling")
	cfg.Weights.Detail = v.GetFloat64("weights.detail")
	cfg.Weights.Saturation = v.GetFloat64("weights.saturation")
	cfg.Weights.Skin = v.GetFloat64("weights.skin")
	cfg.Weights.Boost = v.GetFloat64("weights.boost")
	cfg.RuleOfThirdsWeight = v.GetFloat64("rule-of-thirds-weight")
	cfg.FaceBoostWeight = v.GetFloat64("face-boost-weight")
	cfg.FaceBoostFalloff = v.GetFloat64("face-boost-falloff")
	cfg.OutsideImportance = v.GetFloat64("outside-importance")
	cfg.Skin.Threshold = v.GetFloat64("skin.threshold")
	cfg.Skin.BrightnessMin = v.GetFloat64("skin.brightness-min")
	cfg.Skin.BrightnessMax = v.GetFloat64("skin.brightness-max")
	cfg.Saturation.Threshold = v.GetFloat64("saturation.threshold")
	cfg.Saturation.BrightnessMin = v.GetFloat64("saturation.brightness-min")
	cfg.Saturation.BrightnessMax = v.GetFloat64("saturation.brightness-max")

	if err := cfg.Validate(); err != nil {
		return def, err
	}
	return cfg, nil
}
