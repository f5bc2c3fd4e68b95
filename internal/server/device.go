package server

import (
	"context"
	"net/http"

	"github.com/fluttercommunity/android-id/internal/device"
	"github.com/fluttercommunity/android-id/internal/emulator"
	"github.com/fluttercommunity/android-id/internal/logger"
)

// EmulatorInspector runs the detailed emulator checks.
type EmulatorInspector interface {
	Detect(ctx context.Context) (*emulator.Report, error)
	ExistingFiles(ctx context.Context, paths []string) []string
}

type filesResponse struct {
	Files []string `json:"files"`
}

// DeviceRegistrar serves device properties and emulator diagnostics.
type DeviceRegistrar struct {
	prefix    string
	source    device.Source
	inspector EmulatorInspector
}

func NewDeviceRegistrar(prefix string, source device.Source, inspector EmulatorInspector) *DeviceRegistrar {
	return &DeviceRegistrar{prefix: prefix, source: source, inspector: inspector}
}

func (d *DeviceRegistrar) RegisterRoutes(router Router) {
	group := router.Group(d.prefix)
	group.HandleFunc("GET /device", d.infoHandler)
	group.HandleFunc("GET /device/files", d.filesHandler)
	group.HandleFunc("GET /device/emulator", d.emulatorHandler)
}

func (d *DeviceRegistrar) infoHandler(w http.ResponseWriter, r *http.Request) {
	props, err := d.source.Properties(r.Context())
	if err != nil {
		logger.FromContext(r.Context()).Warn().Err(err).Msg("Failed to read device properties")
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, device.Info(props))
}

func (d *DeviceRegistrar) filesHandler(w http.ResponseWriter, r *http.Request) {
	files := d.inspector.ExistingFiles(r.Context(), emulator.ProbePaths())
	writeJSON(w, http.StatusOK, filesResponse{Files: files})
}

func (d *DeviceRegistrar) emulatorHandler(w http.ResponseWriter, r *http.Request) {
	report, err := d.inspector.Detect(r.Context())
	if err != nil {
		logger.FromContext(r.Context()).Warn().Err(err).Msg("Emulator detection failed")
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, report)
}
