package vm

import (
	"errors"
	"fmt"
)

// ErrorCode represents different types of simulator errors
type ErrorCode int

const (
	// Generic errors
	ErrCodeUnknown ErrorCode = iota
	ErrCodeInternal

	// Argument errors
	ErrCodeInvalidArgument
	ErrCodeUnknownAlgorithm
	ErrCodeUnknownProgram

	// Translation errors
	ErrCodePageOutOfRange
	ErrCodeFrameOutOfRange
	ErrCodeUnresolvedFault

	// Invariant violations
	ErrCodeInvalidVictim
	ErrCodeTableMismatch

	// Disk errors
	ErrCodeDiskReadFailed
	ErrCodeDiskWriteFailed
	ErrCodeBlockOutOfRange
	ErrCodeCorruptBlock
)

// VMError represents a simulator error with context
type VMError struct {
	Code    ErrorCode
	Message string
	Op      string // Operation that failed
	Err     error  // Underlying error (if any)
}

// Error implements the error interface
func (e *VMError) Error() string {
	if e.Op != "" {
		if e.Err != nil {
			return fmt.Sprintf("%s: %s: %v", e.Op, e.Message, e.Err)
		}
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error
func (e *VMError) Unwrap() error {
	return e.Err
}

// Is checks if the error matches a specific error code
func (e *VMError) Is(target error) bool {
	if t, ok := target.(*VMError); ok {
		return e.Code == t.Code
	}
	return false
}

// NewVMError creates a new simulator error
func NewVMError(code ErrorCode, op, message string, err error) *VMError {
	return &VMError{
		Code:    code,
		Message: message,
		Op:      op,
		Err:     err,
	}
}

// Helper functions for common errors

func ErrInvalidArgument(op, message string) *VMError {
	return NewVMError(ErrCodeInvalidArgument, op, message, nil)
}

func ErrUnknownAlgorithm(op, name string) *VMError {
	return NewVMError(
		ErrCodeUnknownAlgorithm,
		op,
		fmt.Sprintf("unknown algorithm: %s", name),
		nil,
	)
}

func ErrUnknownProgram(op, name string) *VMError {
	return NewVMError(
		ErrCodeUnknownProgram,
		op,
		fmt.Sprintf("unknown program: %s", name),
		nil,
	)
}

func ErrPageOutOfRange(op string, page, npages int) *VMError {
	return NewVMError(
		ErrCodePageOutOfRange,
		op,
		fmt.Sprintf("page %d out of range [0, %d)", page, npages),
		nil,
	)
}

func ErrFrameOutOfRange(op string, frame, nframes int) *VMError {
	return NewVMError(
		ErrCodeFrameOutOfRange,
		op,
		fmt.Sprintf("frame %d out of range [0, %d)", frame, nframes),
		nil,
	)
}

func ErrInvalidVictim(op string, frame int, reason string) *VMError {
	return NewVMError(
		ErrCodeInvalidVictim,
		op,
		fmt.Sprintf("replacer chose frame %d: %s", frame, reason),
		nil,
	)
}

func ErrTableMismatch(op string, page, tableFrame, entryFrame int) *VMError {
	return NewVMError(
		ErrCodeTableMismatch,
		op,
		fmt.Sprintf("page %d occupies frame %d but page table maps it to frame %d", page, tableFrame, entryFrame),
		nil,
	)
}

func ErrUnresolvedFault(op string, page int, write bool) *VMError {
	return NewVMError(
		ErrCodeUnresolvedFault,
		op,
		fmt.Sprintf("fault on page %d (write=%t) not resolved by handler", page, write),
		nil,
	)
}

func ErrBlockOutOfRange(op string, block, nblocks int) *VMError {
	return NewVMError(
		ErrCodeBlockOutOfRange,
		op,
		fmt.Sprintf("block %d out of range [0, %d)", block, nblocks),
		nil,
	)
}

func ErrDiskRead(op string, block int, err error) *VMError {
	return NewVMError(
		ErrCodeDiskReadFailed,
		op,
		fmt.Sprintf("failed to read block %d", block),
		err,
	)
}

func ErrDiskWrite(op string, block int, err error) *VMError {
	return NewVMError(
		ErrCodeDiskWriteFailed,
		op,
		fmt.Sprintf("failed to write block %d", block),
		err,
	)
}

func ErrCorruptBlock(op string, block int, err error) *VMError {
	return NewVMError(
		ErrCodeCorruptBlock,
		op,
		fmt.Sprintf("block %d is corrupted", block),
		err,
	)
}

// IsErrorCode checks if an error chain carries a specific error code
func IsErrorCode(err error, code ErrorCode) bool {
	return GetErrorCode(err) == code
}

// GetErrorCode returns the error code from an error chain, or ErrCodeUnknown
func GetErrorCode(err error) ErrorCode {
	var ve *VMError
	if errors.As(err, &ve) {
		return ve.Code
	}
	return ErrCodeUnknown
}

// IsInvariantViolation reports whether err signals a defect in the
// frame table, the page table or a replacer rather than bad input.
func IsInvariantViolation(err error) bool {
	switch GetErrorCode(err) {
	case ErrCodeInvalidVictim, ErrCodeTableMismatch, ErrCodeUnresolvedFault, ErrCodeInternal:
		return true
	}
	return false
}
