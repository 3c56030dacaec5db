package configs

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"time"

	custerror "github.com/vacs-platform/streamview/internal/error"
	"github.com/vacs-platform/streamview/internal/logger"
	"gopkg.in/yaml.v3"
)

const ENV_CONFIG_FILE_PATH = "STREAMVIEW_CONFIG_FILE_PATH"

var globalConfigs *Configs

type Configs struct {
	Public       HttpConfigs          `json:"public,omitempty" yaml:"public,omitempty"`
	Logger       logger.LoggerConfigs `json:"logger,omitempty" yaml:"logger,omitempty"`
	StreamServer StreamServerConfigs  `json:"streamServer,omitempty" yaml:"streamServer,omitempty"`
	CameraApi    CameraApiConfigs     `json:"cameraApi,omitempty" yaml:"cameraApi,omitempty"`
	Viewer       ViewerConfigs        `json:"viewer,omitempty" yaml:"viewer,omitempty"`
	Secrets      SecretsConfigs       `json:"secrets,omitempty" yaml:"secrets,omitempty"`
}

func (c Configs) String() string {
	configBytes, _ := json.Marshal(c)
	return string(configBytes)
}

type HttpConfigs struct {
	Name string `json:"name,omitempty" yaml:"name,omitempty"`
	Port int    `json:"port,omitempty" yaml:"port,omitempty"`
}

// StreamServerConfigs describes the streaming server WebSocket endpoint and
// the transport's recovery policy.
type StreamServerConfigs struct {
	Host                 string        `json:"host,omitempty" yaml:"host,omitempty"`
	Port                 int           `json:"port,omitempty" yaml:"port,omitempty"`
	UpgradePath          string        `json:"upgradePath,omitempty" yaml:"upgradePath,omitempty"`
	Token                string        `json:"token,omitempty" yaml:"token,omitempty"`
	TlsEnabled           bool          `json:"tlsEnabled,omitempty" yaml:"tlsEnabled,omitempty"`
	ReconnectAttempts    uint          `json:"reconnectAttempts,omitempty" yaml:"reconnectAttempts,omitempty"`
	ReconnectDelaySecond int           `json:"reconnectDelaySecond,omitempty" yaml:"reconnectDelaySecond,omitempty"`
	DialTimeout          time.Duration `json:"dialTimeout,omitempty" yaml:"dialTimeout,omitempty"`
}

type CameraApiConfigs struct {
	BaseUrl string `json:"baseUrl,omitempty" yaml:"baseUrl,omitempty"`
	Token   string `json:"token,omitempty" yaml:"token,omitempty"`
}

type ViewerConfigs struct {
	DefaultQuality        string `json:"defaultQuality,omitempty" yaml:"defaultQuality,omitempty"`
	EnableLivenessMonitor bool   `json:"enableLivenessMonitor,omitempty" yaml:"enableLivenessMonitor,omitempty"`
	SilenceTimeoutSecond  int    `json:"silenceTimeoutSecond,omitempty" yaml:"silenceTimeoutSecond,omitempty"`
	PollIntervalSecond    int    `json:"pollIntervalSecond,omitempty" yaml:"pollIntervalSecond,omitempty"`
}

type SecretsConfigs struct {
	Key string `json:"key,omitempty" yaml:"key,omitempty"`
}

func Init(ctx context.Context) {
	configs, err := readConfig()
	if err != nil {
		log.Fatal(err)
		return
	}
	globalConfigs = configs
}

func Get() *Configs {
	return globalConfigs
}

func readConfig() (*Configs, error) {
	path, err := getConfigFilePath()
	if err != nil {
		return nil, err
	}
	contents, err := readConfigFile(path)
	if err != nil {
		return nil, err
	}
	return parseConfig(contents)
}

func getConfigFilePath() (string, error) {
	path := os.Getenv(ENV_CONFIG_FILE_PATH)
	if len(path) == 0 {
		return "", custerror.FormatNotFound("%s not found, unable to read configurations", ENV_CONFIG_FILE_PATH)
	}
	return path, nil
}

func readConfigFile(path string) ([]byte, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, custerror.FormatNotFound("readConfigFile: file not found")
		}
		return nil, custerror.FormatInternalError("readConfigFile: err = %s", err)
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		return nil, custerror.FormatInternalError("readConfigFile: err = %s", err)
	}

	return contents, nil
}

func parseConfig(contents []byte) (*Configs, error) {
	configs := &Configs{}
	if jsonErr := json.Unmarshal(contents, configs); jsonErr != nil {
		if yamlErr := yaml.Unmarshal(contents, configs); yamlErr != nil {
			return nil, custerror.FormatInvalidArgument("parseConfig: config parse JSON err = %s YAML err = %s", jsonErr, yamlErr)
		}
	}
	return configs, nil
}
