// Package bufferqueue implements the core BufferQueue state machine: a
// slotted cache of GPU/DMA-backed buffers shared between exactly one
// producer and one consumer, with per-slot state transitions, two FIFO
// lanes (free and dirty), and strict conservation invariants under
// concurrent request/flush/acquire/release traffic.
package bufferqueue

import (
	"time"

	"github.com/vellumgfx/bufferqueue/fence"
)

// SlotState is one of the five states a cached slot can be in at any
// instant.
type SlotState int

const (
	Released SlotState = iota
	Requested
	Flushed
	Acquired
	Attached
)

func (s SlotState) String() string {
	switch s {
	case Released:
		return "Released"
	case Requested:
		return "Requested"
	case Flushed:
		return "Flushed"
	case Acquired:
		return "Acquired"
	case Attached:
		return "Attached"
	default:
		return "Unknown"
	}
}

// PixelFormat mirrors the producer-visible pixel format enum. Exact values
// are opaque to the core; only equality matters for config-reuse matching.
type PixelFormat int32

const (
	FormatUnknown PixelFormat = iota
	FormatRGBA8888
	FormatRGBX8888
	FormatRGB565
	FormatYCbCr420SP
	FormatYCbCr420P
)

// Usage is the allocator usage bitmask (CPU access, GPU render/texture,
// composer overlay, protected content, HDR block-compression, and the
// global-alpha metadata flag).
type Usage uint64

const (
	UsageCPURead Usage = 1 << iota
	UsageCPUWrite
	UsageGPURender
	UsageGPUTexture
	UsageComposer
	UsageProtected
	UsageHEBC // hardware efficient block compression access metadata
	UsageGlobalAlpha
)

// DefaultUsage is merged into every RequestBuffer config per spec.md
// §4.1.1 step 2 ("merge default-usage into the request usage").
const DefaultUsage Usage = UsageGPURender | UsageComposer

// ColorGamut enumerates the supported color gamuts. colorGamutCount bounds
// the valid range for RequestBuffer's enum validation.
type ColorGamut int32

const (
	ColorGamutSRGB ColorGamut = iota
	ColorGamutDisplayP3
	ColorGamutDCIP3
	ColorGamutBT2020
	colorGamutCount
)

// Valid reports whether g is a recognized gamut value.
func (g ColorGamut) Valid() bool { return g >= 0 && g < colorGamutCount }

// Transform is a bitmask of the buffer-orientation transform applied at
// composition time.
type Transform int32

const (
	TransformNone     Transform = 0
	TransformFlipH    Transform = 1 << 0
	TransformFlipV    Transform = 1 << 1
	TransformRotate90 Transform = 1 << 2

	transformMask = TransformFlipH | TransformFlipV | TransformRotate90
)

// Valid reports whether t is composed only of recognized transform bits.
func (t Transform) Valid() bool { return t&^transformMask == 0 }

// ScalingMode selects how a buffer's content is fit to its presentation
// window.
type ScalingMode int32

const (
	ScalingModeFreeze ScalingMode = iota
	ScalingModeScaleToWindow
	ScalingModeScaleCrop
	ScalingModeNoScaleCrop
)

// SourceType tags the producer's content class; SourceTypeLowPowerVideo
// enables AcquireLppBuffer's reads from the LPP shared-memory mirror,
// while AcquireBuffer keeps serving the dirty-list FIFO.
type SourceType int32

const (
	SourceTypeDefault SourceType = iota
	SourceTypeGame
	SourceTypeVideo
	SourceTypeLowPowerVideo
)

// Config is the per-request buffer configuration. The equality predicate
// used for request-reuse matching (spec.md §4.1.1 step 4) is width ∧
// height ∧ format ∧ usage — EqualKey, not Go's ==, since stride alignment,
// color gamut, and transform do not gate reuse.
type Config struct {
	Width           int32
	Height          int32
	StrideAlignment int32
	Format          PixelFormat
	Usage           Usage
	ColorGamut      ColorGamut
	Transform       Transform
	TimeoutMS       int32
}

// EqualKey reports whether c and o share the same (width, height, format,
// usage) — the request-reuse matching key.
func (c Config) EqualKey(o Config) bool {
	return c.Width == o.Width && c.Height == o.Height && c.Format == o.Format && c.Usage == o.Usage
}

// DamageRect is a producer-supplied damage (dirty) rectangle.
type DamageRect struct {
	Left, Top, Right, Bottom int32
}

// Valid reports whether the rectangle has non-negative width and height,
// per spec.md §4.1.2 step 2.
func (d DamageRect) Valid() bool {
	return d.Right-d.Left >= 0 && d.Bottom-d.Top >= 0
}

// SurfaceBuffer is the opaque GPU/DMA buffer handle a slot owns: a handle
// id, dimensions, pixel format, usage bitmask, a mapped virtual address
// stand-in, and the backing file descriptor.
type SurfaceBuffer struct {
	Handle string
	Width  int32
	Height int32
	Format PixelFormat
	Usage  Usage
	Addr   uintptr
	Fd     int
}

// IsZero reports whether b is the empty/unallocated buffer.
func (b SurfaceBuffer) IsZero() bool { return b.Handle == "" }

// Slot is the unit of currency: one cached buffer entry plus its
// per-request state. Field set matches spec.md §3's slot record.
type Slot struct {
	Sequence uint32
	Buffer   SurfaceBuffer
	State    SlotState
	Config   Config

	ReleaseFence fence.Fence
	FlushFence   fence.Fence

	FlushTimestamp          time.Time
	DesiredPresentTimestamp int64
	IsAutoTimestamp         bool

	Damage      []DamageRect
	HDRMetadata []byte
	ScalingMode ScalingMode

	LastFlushedTransform Transform

	IsDeleting          bool
	IsPreAllocBuffer    bool
	IsBufferNeedRealloc bool

	// ReserveSlot marks capacity reserved by a consumer detach (invariant
	// 5): it counts against queueSize but is unreachable by request until
	// re-attached.
	ReserveSlot bool

	ListenerClientPid int
	LastAcquireTime   time.Time

	ExtraData map[string][]byte
}

// clone returns a deep-enough copy of s for snapshot/dump paths — damage
// and extra-data slices/maps are copied so callers cannot mutate live
// queue state.
func (s Slot) clone() Slot {
	out := s
	if s.Damage != nil {
		out.Damage = append([]DamageRect(nil), s.Damage...)
	}
	if s.HDRMetadata != nil {
		out.HDRMetadata = append([]byte(nil), s.HDRMetadata...)
	}
	if s.ExtraData != nil {
		out.ExtraData = make(map[string][]byte, len(s.ExtraData))
		for k, v := range s.ExtraData {
			out.ExtraData[k] = v
		}
	}
	return out
}
