//go:build headless

package main

import "sync/atomic"

func init() {
	compiledFeatures = append(compiledFeatures, "video:headless")
}

type HeadlessVideoOutput struct {
	started     bool
	config      DisplayConfig
	frameCount  uint64
	refreshRate int
	status      atomic.Value // FrameStatus
	last        []byte
}

func NewEbitenOutput() (VideoOutput, error) {
	return &HeadlessVideoOutput{refreshRate: 60}, nil
}

func (h *HeadlessVideoOutput) Start() error {
	h.started = true
	return nil
}

func (h *HeadlessVideoOutput) Stop() error {
	h.started = false
	return nil
}

func (h *HeadlessVideoOutput) Close() error {
	h.started = false
	return nil
}

func (h *HeadlessVideoOutput) IsStarted() bool {
	return h.started
}

// Done never fires; a headless run ends when its frame budget is spent.
func (h *HeadlessVideoOutput) Done() <-chan struct{} {
	return nil
}

func (h *HeadlessVideoOutput) SetDisplayConfig(config DisplayConfig) error {
	h.config = config
	return nil
}

func (h *HeadlessVideoOutput) GetDisplayConfig() DisplayConfig {
	return h.config
}

func (h *HeadlessVideoOutput) UpdateFrame(buffer []byte) error {
	h.last = append(h.last[:0], buffer...)
	atomic.AddUint64(&h.frameCount, 1)
	return nil
}

func (h *HeadlessVideoOutput) SetStatus(s FrameStatus) {
	h.status.Store(s)
}

// LastStatus returns the most recent status handed to SetStatus.
func (h *HeadlessVideoOutput) LastStatus() FrameStatus {
	s, _ := h.status.Load().(FrameStatus)
	return s
}

func (h *HeadlessVideoOutput) WaitForVSync() error {
	return nil
}

func (h *HeadlessVideoOutput) GetFrameCount() uint64 {
	return atomic.LoadUint64(&h.frameCount)
}

func (h *HeadlessVideoOutput) GetRefreshRate() int {
	if h.refreshRate == 0 {
		return 60
	}
	return h.refreshRate
}
