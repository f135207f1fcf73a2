package reachyhal

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// RobotModel is one of the closed set of deployable Reachy configurations.
// Each maps to its own device table in robotmodel.go.
type RobotModel string

const (
	ModelFullKit                 RobotModel = "full_kit"
	ModelFullKitLeftAdvanced     RobotModel = "full_kit_left_advanced"
	ModelFullKitRightAdvanced    RobotModel = "full_kit_right_advanced"
	ModelFullKitFullAdvanced     RobotModel = "full_kit_full_advanced"
	ModelStarterKitLeft          RobotModel = "starter_kit_left"
	ModelStarterKitLeftAdvanced  RobotModel = "starter_kit_left_advanced"
	ModelStarterKitRight         RobotModel = "starter_kit_right"
	ModelStarterKitRightAdvanced RobotModel = "starter_kit_right_advanced"
	ModelRoboticArmLeft          RobotModel = "robotic_arm_left"
	ModelRoboticArmLeftAdvanced  RobotModel = "robotic_arm_left_advanced"
	ModelRoboticArmRight         RobotModel = "robotic_arm_right"
	ModelRoboticArmRightAdvanced RobotModel = "robotic_arm_right_advanced"

	// DefaultModel is assumed when neither REACHY_MODEL nor a config file
	// pins a choice.
	DefaultModel = ModelFullKit
)

var validModels = map[RobotModel]bool{
	ModelFullKit: true, ModelFullKitLeftAdvanced: true, ModelFullKitRightAdvanced: true,
	ModelFullKitFullAdvanced: true, ModelStarterKitLeft: true, ModelStarterKitLeftAdvanced: true,
	ModelStarterKitRight: true, ModelStarterKitRightAdvanced: true, ModelRoboticArmLeft: true,
	ModelRoboticArmLeftAdvanced: true, ModelRoboticArmRight: true, ModelRoboticArmRightAdvanced: true,
}

// IsValid reports whether m belongs to the closed set of known models.
func (m RobotModel) IsValid() bool {
	return validModels[m]
}

// reachyConfigFile mirrors the single `model:` key read from the YAML
// config file.
type reachyConfigFile struct {
	Model string `yaml:"model"`
}

// ResolveModel determines which robot model to bring up: the REACHY_MODEL
// environment variable, else the `model` key of the YAML file named by
// REACHY_CONFIG_FILE (defaulting to ~/.reachy.yaml), else DefaultModel.
func ResolveModel() (RobotModel, error) {
	if env, ok := os.LookupEnv("REACHY_MODEL"); ok && env != "" {
		return RobotModel(env), nil
	}

	configPath, ok := os.LookupEnv("REACHY_CONFIG_FILE")
	if !ok || configPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return DefaultModel, nil
		}
		configPath = filepath.Join(home, ".reachy.yaml")
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return DefaultModel, nil
	}

	var cfg reachyConfigFile
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return DefaultModel, nil
	}
	if cfg.Model == "" {
		return DefaultModel, nil
	}
	return RobotModel(cfg.Model), nil
}
