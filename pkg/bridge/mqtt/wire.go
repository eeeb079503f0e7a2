package mqtt

import (
	"fmt"

	"github.com/golang/protobuf/proto"
)

// Message type IDs carried in Envelope.
const (
	FrameEventTypeID    uint32 = 0x80010001
	TextUpdateTypeID    uint32 = 0x80010002
	CommandResultTypeID uint32 = 0x00010001
)

// Envelope wraps an encoded message with its type.
type Envelope struct {
	TypeId  uint32 `protobuf:"varint,1,opt,name=type_id,json=typeId,proto3" json:"type_id,omitempty"`
	Message []byte `protobuf:"bytes,2,opt,name=message,proto3" json:"message,omitempty"`
}

func (m *Envelope) Reset()         { *m = Envelope{} }
func (m *Envelope) String() string { return proto.CompactTextString(m) }
func (*Envelope) ProtoMessage()    {}

// FrameEvent reports a frame sent or received by a role.
type FrameEvent struct {
	Role      string `protobuf:"bytes,1,opt,name=role,proto3" json:"role,omitempty"`
	Direction string `protobuf:"bytes,2,opt,name=direction,proto3" json:"direction,omitempty"`
	Raw       []byte `protobuf:"bytes,3,opt,name=raw,proto3" json:"raw,omitempty"`
	// Timestamp in unix nanoseconds.
	Timestamp int64  `protobuf:"varint,4,opt,name=timestamp,proto3" json:"timestamp,omitempty"`
	Address   uint32 `protobuf:"varint,5,opt,name=address,proto3" json:"address,omitempty"`
	Function  uint32 `protobuf:"varint,6,opt,name=function,proto3" json:"function,omitempty"`
	Data      []byte `protobuf:"bytes,7,opt,name=data,proto3" json:"data,omitempty"`
	// Error is set when the frame doesn't parse.
	Error string `protobuf:"bytes,8,opt,name=error,proto3" json:"error,omitempty"`
}

func (m *FrameEvent) Reset()         { *m = FrameEvent{} }
func (m *FrameEvent) String() string { return proto.CompactTextString(m) }
func (*FrameEvent) ProtoMessage()    {}

// TextUpdate is published after a station stores new text.
type TextUpdate struct {
	Address   uint32 `protobuf:"varint,1,opt,name=address,proto3" json:"address,omitempty"`
	Text      []byte `protobuf:"bytes,2,opt,name=text,proto3" json:"text,omitempty"`
	Timestamp int64  `protobuf:"varint,3,opt,name=timestamp,proto3" json:"timestamp,omitempty"`
}

func (m *TextUpdate) Reset()         { *m = TextUpdate{} }
func (m *TextUpdate) String() string { return proto.CompactTextString(m) }
func (*TextUpdate) ProtoMessage()    {}

// CommandResult is the reply to a remote master command.
type CommandResult struct {
	Address uint32 `protobuf:"varint,1,opt,name=address,proto3" json:"address,omitempty"`
	Command string `protobuf:"bytes,2,opt,name=command,proto3" json:"command,omitempty"`
	Ok      bool   `protobuf:"varint,3,opt,name=ok,proto3" json:"ok,omitempty"`
	Text    []byte `protobuf:"bytes,4,opt,name=text,proto3" json:"text,omitempty"`
	Error   string `protobuf:"bytes,5,opt,name=error,proto3" json:"error,omitempty"`
}

func (m *CommandResult) Reset()         { *m = CommandResult{} }
func (m *CommandResult) String() string { return proto.CompactTextString(m) }
func (*CommandResult) ProtoMessage()    {}

// ErrUnknownType indicates an unknown type id.
type ErrUnknownType struct {
	TypeID uint32
}

// Error implements error.
func (e *ErrUnknownType) Error() string {
	return fmt.Sprintf("unknown type: %x", e.TypeID)
}

func newMessage(typeID uint32) proto.Message {
	switch typeID {
	case FrameEventTypeID:
		return &FrameEvent{}
	case TextUpdateTypeID:
		return &TextUpdate{}
	case CommandResultTypeID:
		return &CommandResult{}
	}
	return nil
}

func typeIDOf(msg proto.Message) uint32 {
	switch msg.(type) {
	case *FrameEvent:
		return FrameEventTypeID
	case *TextUpdate:
		return TextUpdateTypeID
	case *CommandResult:
		return CommandResultTypeID
	}
	return 0
}

// Encode wraps msg in an Envelope and encodes it.
func Encode(msg proto.Message) ([]byte, error) {
	typeID := typeIDOf(msg)
	if typeID == 0 {
		return nil, fmt.Errorf("unsupported message %T", msg)
	}
	data, err := proto.Marshal(msg)
	if err != nil {
		return nil, err
	}
	return proto.Marshal(&Envelope{TypeId: typeID, Message: data})
}

// Decode decodes an Envelope and the message inside.
func Decode(payload []byte) (proto.Message, error) {
	var env Envelope
	if err := proto.Unmarshal(payload, &env); err != nil {
		return nil, err
	}
	msg := newMessage(env.TypeId)
	if msg == nil {
		return nil, &ErrUnknownType{TypeID: env.TypeId}
	}
	if err := proto.Unmarshal(env.Message, msg); err != nil {
		return nil, err
	}
	return msg, nil
}
