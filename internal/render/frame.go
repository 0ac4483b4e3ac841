package render

import (
	"time"

	"github.com/cockroachdb/errors"
	"github.com/loov/hrtime"
	"golang.org/x/exp/slog"
)

type SlotState int

const (
	SlotIdle SlotState = iota
	SlotAcquired
	SlotRecording
	SlotSubmitted
	SlotPresented
)

func (s SlotState) String() string {
	switch s {
	case SlotIdle:
		return "idle"
	case SlotAcquired:
		return "acquired"
	case SlotRecording:
		return "recording"
	case SlotSubmitted:
		return "submitted"
	case SlotPresented:
		return "presented"
	}
	return "unknown"
}

var nextSlotState = map[SlotState]SlotState{
	SlotIdle:      SlotAcquired,
	SlotAcquired:  SlotRecording,
	SlotRecording: SlotSubmitted,
	SlotSubmitted: SlotPresented,
	SlotPresented: SlotIdle,
}

// FrameSlot is the command buffer and fence of one swapchain image.
type FrameSlot struct {
	Index   uint32
	Command CommandBuffer
	Fence   Fence
	State   SlotState
}

func (s *FrameSlot) advance(to SlotState) error {
	if nextSlotState[s.State] != to {
		return errors.Newf("frame slot %d: illegal transition %s -> %s", s.Index, s.State, to)
	}
	s.State = to
	return nil
}

type semaphorePair struct {
	presentComplete Semaphore
	renderComplete  Semaphore
}

type FrameStats struct {
	Frames  uint64
	Last    time.Duration
	Average time.Duration
	Worst   time.Duration
}

// RecordFunc records draw commands into cmd inside the active render pass.
type RecordFunc func(cmd CommandBuffer, imageIndex uint32) error

// FrameSynchronizer drives acquire, wait, record, submit and present for every
// frame. A slot's command buffer is only re-recorded after its fence signals,
// so each slot has at most one submission in flight.
type FrameSynchronizer struct {
	drv Driver
	dev *DeviceContext
	sc  *SwapchainState
	rt  *RenderTargets
	log *slog.Logger

	slots []FrameSlot
	sems  []semaphorePair
	frame uint64

	acquireTimeout uint64
	fenceTimeout   uint64
	clearColor     [4]float32

	stats FrameStats
	total time.Duration
}

func createFrameSynchronizer(drv Driver, dev *DeviceContext, sc *SwapchainState, rt *RenderTargets, cfg Config, rel *releaseStack, log *slog.Logger) (*FrameSynchronizer, error) {
	f := &FrameSynchronizer{
		drv:            drv,
		dev:            dev,
		sc:             sc,
		rt:             rt,
		log:            log,
		acquireTimeout: timeoutNanos(cfg.AcquireTimeout),
		fenceTimeout:   timeoutNanos(cfg.FenceTimeout),
		clearColor:     cfg.ClearColor,
	}
	device := dev.Device
	count := sc.ImageCount()

	pairs := 1
	if cfg.Semaphores == PerFrameSemaphores {
		pairs = count
	}
	for i := 0; i < pairs; i++ {
		var p semaphorePair
		var err error
		if p.presentComplete, err = drv.CreateSemaphore(device); err != nil {
			return nil, fatal(err, "create present complete semaphore")
		}
		present := p.presentComplete
		rel.push("semaphore", func() { drv.DestroySemaphore(device, present) })
		if p.renderComplete, err = drv.CreateSemaphore(device); err != nil {
			return nil, fatal(err, "create render complete semaphore")
		}
		render := p.renderComplete
		rel.push("semaphore", func() { drv.DestroySemaphore(device, render) })
		f.sems = append(f.sems, p)
	}

	f.slots = make([]FrameSlot, count)
	for i := range f.slots {
		// signaled so the first wait on every slot returns at once
		fence, err := drv.CreateFence(device, true)
		if err != nil {
			return nil, fatalf(err, "create fence %d", i)
		}
		f.slots[i].Index = uint32(i)
		f.slots[i].Fence = fence
		rel.push("fence", func() { drv.DestroyFence(device, fence) })
	}

	pool := dev.CommandPool
	cmds, err := drv.AllocateCommandBuffers(device, pool, uint32(count))
	if err != nil {
		return nil, fatal(err, "allocate command buffers")
	}
	if len(cmds) != count {
		drv.FreeCommandBuffers(device, pool, cmds)
		return nil, fatal(errors.Newf("got %d command buffers, want %d", len(cmds), count), "allocate command buffers")
	}
	rel.push("command buffers", func() { drv.FreeCommandBuffers(device, pool, cmds) })
	for i := range f.slots {
		f.slots[i].Command = cmds[i]
	}
	log.Debug("frame slots ready",
		slog.Int("slots", count),
		slog.Int("semaphore_pairs", pairs))
	return f, nil
}

func (f *FrameSynchronizer) Slots() []FrameSlot {
	return f.slots
}

func (f *FrameSynchronizer) Stats() FrameStats {
	return f.stats
}

// RenderFrame renders and presents one frame, calling record between render
// pass begin and end. It blocks on image acquisition and on the slot's fence.
func (f *FrameSynchronizer) RenderFrame(record RecordFunc) error {
	start := hrtime.Now()
	drv := f.drv
	device := f.dev.Device
	presentComplete := f.sems[f.frame%uint64(len(f.sems))].presentComplete

	index, err := drv.AcquireNextImage(device, f.sc.Handle, f.acquireTimeout, presentComplete)
	if err != nil {
		return waitErr(err, "acquire next image")
	}
	if int(index) >= len(f.slots) {
		return errors.Newf("acquired image %d of %d", index, len(f.slots))
	}
	slot := &f.slots[index]

	if err := drv.WaitForFence(device, slot.Fence, f.fenceTimeout); err != nil {
		return waitErr(err, "wait for frame fence")
	}
	// the slot's previous submit has finished, so its signal semaphore is free
	renderComplete := f.sems[index%uint32(len(f.sems))].renderComplete
	if slot.State == SlotPresented {
		if err := slot.advance(SlotIdle); err != nil {
			return err
		}
	}
	if err := slot.advance(SlotAcquired); err != nil {
		return err
	}

	if err := slot.advance(SlotRecording); err != nil {
		return err
	}
	if err := drv.BeginCommandBuffer(slot.Command, false); err != nil {
		return errors.Wrap(err, "begin command buffer")
	}
	drv.CmdBeginRenderPass(slot.Command, RenderPassBegin{
		RenderPass:  f.rt.RenderPass,
		Framebuffer: f.rt.Framebuffers[index],
		Extent:      f.rt.Extent,
		ClearColor:  f.clearColor,
		ClearDepth:  1.0,
	})
	if record != nil {
		if err := record(slot.Command, index); err != nil {
			drv.CmdEndRenderPass(slot.Command)
			_ = drv.EndCommandBuffer(slot.Command)
			return errors.Wrap(err, "record commands")
		}
	}
	drv.CmdEndRenderPass(slot.Command)
	if err := drv.EndCommandBuffer(slot.Command); err != nil {
		return errors.Wrap(err, "end command buffer")
	}

	if err := drv.ResetFence(device, slot.Fence); err != nil {
		return errors.Wrap(err, "reset frame fence")
	}
	err = drv.QueueSubmit(f.dev.Queue, SubmitInfo{
		WaitSemaphores:   []Semaphore{presentComplete},
		WaitStages:       []PipelineStageFlags{PipelineStageColorAttachmentOutput},
		CommandBuffers:   []CommandBuffer{slot.Command},
		SignalSemaphores: []Semaphore{renderComplete},
	}, slot.Fence)
	if err != nil {
		return errors.Wrap(err, "queue submit")
	}
	if err := slot.advance(SlotSubmitted); err != nil {
		return err
	}

	err = drv.QueuePresent(f.dev.Queue, PresentInfo{
		WaitSemaphores: []Semaphore{renderComplete},
		Swapchain:      f.sc.Handle,
		ImageIndex:     index,
	})
	if err != nil {
		return errors.Wrap(err, "queue present")
	}
	if err := slot.advance(SlotPresented); err != nil {
		return err
	}

	f.frame++
	f.observe(hrtime.Since(start))
	return nil
}

func (f *FrameSynchronizer) observe(d time.Duration) {
	f.stats.Frames++
	f.stats.Last = d
	f.total += d
	f.stats.Average = f.total / time.Duration(f.stats.Frames)
	if d > f.stats.Worst {
		f.stats.Worst = d
	}
}
