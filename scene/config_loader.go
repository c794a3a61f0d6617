package scene

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// MQTTConfig holds MQTT connection settings
type MQTTConfig struct {
	Broker        string `yaml:"broker" json:"broker"`
	SensorTopic   string `yaml:"sensorTopic" json:"sensorTopic"`
	SecurityTopic string `yaml:"securityTopic,omitempty" json:"securityTopic,omitempty"`
	ClientID      string `yaml:"clientId" json:"clientId"`
	Username      string `yaml:"username,omitempty" json:"username,omitempty"`
	Password      string `yaml:"password,omitempty" json:"password,omitempty"`
}

// Config represents the full configuration file
type Config struct {
	MQTT       MQTTConfig       `yaml:"mqtt" json:"mqtt"`
	HTTPPort   int              `yaml:"httpPort,omitempty" json:"httpPort,omitempty"`
	MeshFile   string           `yaml:"meshFile,omitempty" json:"meshFile,omitempty"`
	FrameRate  int              `yaml:"frameRate,omitempty" json:"frameRate,omitempty"`
	Rooms      []RoomConfig     `yaml:"rooms,omitempty" json:"rooms,omitempty"`
	Visibility VisibilityConfig `yaml:"visibility,omitempty" json:"visibility,omitempty"`
}

// GetRoomByID returns the room config for the given ID
func (c *Config) GetRoomByID(id string) *RoomConfig {
	for i := range c.Rooms {
		if c.Rooms[i].ID == id {
			return &c.Rooms[i]
		}
	}
	return nil
}

// LoadConfig loads the scene configuration from a YAML file
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found: %s", path)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	config := Config{Visibility: DefaultVisibility()}
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("parsing config YAML: %w", err)
	}

	// An empty broker disables MQTT; a configured broker needs a topic.
	if config.MQTT.Broker != "" && config.MQTT.SensorTopic == "" {
		return nil, fmt.Errorf("mqtt.sensorTopic is required when mqtt.broker is set")
	}

	// Validate room configs
	for i, rc := range config.Rooms {
		if rc.ID == "" {
			return nil, fmt.Errorf("room[%d].id is required", i)
		}
	}

	if config.HTTPPort == 0 {
		config.HTTPPort = 8080
	}
	if config.FrameRate <= 0 {
		config.FrameRate = 60
	}
	if config.Visibility.CameraMode == "" {
		config.Visibility.CameraMode = CameraOrbit
	}

	return &config, nil
}

// SaveConfig saves the configuration to a YAML file
func SaveConfig(path string, config *Config) error {
	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("marshaling config YAML: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}
