package service

import (
	"sync"
	"time"

	"github.com/vacs-platform/streamview/internal/cameraapi"
	"github.com/vacs-platform/streamview/internal/configs"
)

var once sync.Once

var (
	streamService  *StreamService
	roiService     *RoiService
	commandService *CommandService
)

func Init(transport Transport) {
	once.Do(func() {
		globalConfigs := configs.Get()
		viewerConfigs := globalConfigs.Viewer

		streamService = NewStreamService(transport, StreamServiceOptions{
			DefaultQuality: viewerConfigs.DefaultQuality,
			Liveness: LivenessOptions{
				Enabled:        viewerConfigs.EnableLivenessMonitor,
				SilenceTimeout: time.Duration(viewerConfigs.SilenceTimeoutSecond) * time.Second,
				PollInterval:   time.Duration(viewerConfigs.PollIntervalSecond) * time.Second,
			},
		})
		roiService = NewRoiService(cameraapi.NewClient(&globalConfigs.CameraApi, &globalConfigs.Secrets))
		commandService = NewCommandService(streamService)
	})
}

func GetStreamService() *StreamService {
	return streamService
}

func GetRoiService() *RoiService {
	return roiService
}

func GetCommandService() *CommandService {
	return commandService
}

func Shutdown() {
	if commandService != nil {
		commandService.Shutdown()
	}
	if streamService != nil {
		streamService.Shutdown()
	}
}
