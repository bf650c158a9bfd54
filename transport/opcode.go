// Package transport implements the BufferQueue RPC surface: the fixed
// opcode table from spec.md §6, an XDR wire codec for the argument/reply
// structs each opcode carries, and a Transport capability the producer
// and consumer facades call into for the out-of-process path.
package transport

// Opcode identifies one producer-facing RPC procedure. Values are stable
// across process boundaries; never renumber an existing opcode.
type Opcode uint32

const (
	OpGetInitInfo Opcode = iota + 1
	OpRequestBuffer
	OpRequestBuffers
	OpCancelBuffer
	OpFlushBuffer
	OpFlushBuffers
	OpAttachToQueue
	OpDetachFromQueue
	OpAttach
	OpDetach
	OpGetQueueSize
	OpSetQueueSize
	OpGetName
	OpGetDefaultSize
	OpGetDefaultUsage
	OpSetDefaultUsage
	OpGetUniqueID
	OpCleanCache
	OpRegisterReleaseListener
	OpUnregisterReleaseListener
	OpRegisterSeqFenceListener
	OpUnregisterSeqFenceListener
	OpSetTransform
	OpGetTransform
	OpConnect
	OpDisconnect
	OpConnectStrictly
	OpDisconnectStrictly
	OpSetScalingMode
	OpSetScalingModeV2
	OpSetMetadata
	OpSetMetadataValue
	OpSetTunnelHandle
	OpGoBackground
	OpGetPresentTimestamp
	OpGetLastFlushedBuffer
	OpGetTransformHint
	OpSetTransformHint
	OpSetBufferHold
	OpSetBufferName
	OpSetBufferReallocFlag
	OpGetSourceType
	OpSetSourceType
	OpGetAppFrameworkType
	OpSetAppFrameworkType
	OpSetHdrWhitePointBrightness
	OpSetSdrWhitePointBrightness
	OpAcquireLastFlushedBuffer
	OpReleaseLastFlushedBuffer
	OpSetGlobalAlpha
	OpSetRequestBufferNoblockMode
	OpRequestAndDetach
	OpAttachAndFlush
	OpGetRotatingBufferCount
	OpSetRotatingBufferCount
	OpSetFrameGravity
	OpSetFixedRotation
	OpRegisterPropertyListener
	OpUnregisterPropertyListener
	OpSetPreAllocBuffers
	OpSetLppShareFd
	OpSetAlphaType
)

var opcodeNames = map[Opcode]string{
	OpGetInitInfo:                 "GetInitInfo",
	OpRequestBuffer:               "RequestBuffer",
	OpRequestBuffers:              "RequestBuffers",
	OpCancelBuffer:                "Cancel",
	OpFlushBuffer:                 "Flush",
	OpFlushBuffers:                "Flushes",
	OpAttachToQueue:               "AttachToQueue",
	OpDetachFromQueue:             "DetachFromQueue",
	OpAttach:                      "Attach",
	OpDetach:                      "Detach",
	OpGetQueueSize:                "GetQueueSize",
	OpSetQueueSize:                "SetQueueSize",
	OpGetName:                     "GetName",
	OpGetDefaultSize:              "GetDefaultSize",
	OpGetDefaultUsage:             "GetDefaultUsage",
	OpSetDefaultUsage:             "SetDefaultUsage",
	OpGetUniqueID:                 "GetUniqueId",
	OpCleanCache:                  "CleanCache",
	OpRegisterReleaseListener:     "RegisterReleaseListener",
	OpUnregisterReleaseListener:   "UnregisterReleaseListener",
	OpRegisterSeqFenceListener:    "RegisterSeqFenceListener",
	OpUnregisterSeqFenceListener:  "UnregisterSeqFenceListener",
	OpSetTransform:                "SetTransform",
	OpGetTransform:                "GetTransform",
	OpConnect:                     "Connect",
	OpDisconnect:                  "Disconnect",
	OpConnectStrictly:             "ConnectStrictly",
	OpDisconnectStrictly:          "DisconnectStrictly",
	OpSetScalingMode:              "SetScalingMode",
	OpSetScalingModeV2:            "SetScalingModeV2",
	OpSetMetadata:                 "SetMetadata",
	OpSetMetadataValue:            "SetMetadataValue",
	OpSetTunnelHandle:             "SetTunnelHandle",
	OpGoBackground:                "GoBackground",
	OpGetPresentTimestamp:         "GetPresentTimestamp",
	OpGetLastFlushedBuffer:        "GetLastFlushedBuffer",
	OpGetTransformHint:            "GetTransformHint",
	OpSetTransformHint:            "SetTransformHint",
	OpSetBufferHold:               "SetBufferHold",
	OpSetBufferName:               "SetBufferName",
	OpSetBufferReallocFlag:        "SetBufferReallocFlag",
	OpGetSourceType:               "GetSourceType",
	OpSetSourceType:               "SetSourceType",
	OpGetAppFrameworkType:         "GetAppFrameworkType",
	OpSetAppFrameworkType:         "SetAppFrameworkType",
	OpSetHdrWhitePointBrightness:  "SetHdrWhitePointBrightness",
	OpSetSdrWhitePointBrightness:  "SetSdrWhitePointBrightness",
	OpAcquireLastFlushedBuffer:    "AcquireLastFlushedBuffer",
	OpReleaseLastFlushedBuffer:    "ReleaseLastFlushedBuffer",
	OpSetGlobalAlpha:              "SetGlobalAlpha",
	OpSetRequestBufferNoblockMode: "SetRequestBufferNoblockMode",
	OpRequestAndDetach:            "RequestAndDetach",
	OpAttachAndFlush:              "AttachAndFlush",
	OpGetRotatingBufferCount:      "GetRotatingBufferCount",
	OpSetRotatingBufferCount:      "SetRotatingBufferCount",
	OpSetFrameGravity:             "SetFrameGravity",
	OpSetFixedRotation:            "SetFixedRotation",
	OpRegisterPropertyListener:    "RegisterPropertyListener",
	OpUnregisterPropertyListener:  "UnregisterPropertyListener",
	OpSetPreAllocBuffers:          "SetPreAllocBuffers",
	OpSetLppShareFd:               "SetLppShareFd",
	OpSetAlphaType:                "SetAlphaType",
}

// String returns the opcode's procedure name, or "Unknown" if
// unrecognized.
func (o Opcode) String() string {
	if n, ok := opcodeNames[o]; ok {
		return n
	}
	return "Unknown"
}
