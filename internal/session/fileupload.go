package session

import (
	"context"
	"fmt"
	"log"

	"github.com/dustin/go-humanize"

	"github.com/kvaps/huawei-solar-go/internal/gate"
	"github.com/kvaps/huawei-solar-go/internal/protocol"
	"github.com/kvaps/huawei-solar-go/internal/transport"
)

var fileUploadRetry = gate.RetryPolicy{
	Delay:    fileUploadRetryDelay,
	MaxTries: fileUploadMaxTries,
	ShouldRetry: func(err error) bool {
		return transport.IsTimeout(err) || transport.IsSlaveBusy(err)
	},
}

// GetFile implements the chunked "file upload" sub-protocol: start,
// repeated data frames until the reported file length is assembled,
// complete, then a byte-swapped CRC-16 check. The gate is held for the
// whole procedure, retries included, so no other request on the shared
// transport (a heartbeat write, another bridge's read) can splice into
// the middle of a transfer.
func (s *Session) GetFile(ctx context.Context, fileType byte, customized []byte, slave byte) ([]byte, error) {
	var data []byte
	err := s.gate.Do(ctx, func() error {
		d, ferr := s.getFileLocked(ctx, fileType, customized, slave)
		if ferr != nil {
			return ferr
		}
		data = d
		return nil
	})
	if err != nil {
		return nil, err
	}
	return data, nil
}

func (s *Session) getFileLocked(ctx context.Context, fileType byte, customized []byte, slave byte) ([]byte, error) {
	start, err := s.fileUploadStart(ctx, fileType, customized, slave)
	if err != nil {
		return nil, err
	}

	data := make([]byte, 0, start.FileLength)
	var frameNo uint16
	for uint32(frameNo)*uint32(start.DataFrameLength) < start.FileLength {
		frame, err := s.fileUploadData(ctx, fileType, frameNo, slave)
		if err != nil {
			return nil, err
		}
		data = append(data, frame.FrameData...)
		frameNo++
		log.Printf("session %s: file %#x upload progress %s", s.ID, fileType, fileUploadProgress(uint32(len(data)), start.FileLength))
	}

	complete, err := s.fileUploadComplete(ctx, fileType, slave)
	if err != nil {
		return nil, err
	}

	swapped := protocol.SwapCRCBytes(complete.FileCRC)
	computed := protocol.CRC16(data)
	if computed != swapped {
		return nil, &CrcMismatchError{Computed: computed, Expected: swapped}
	}

	return data, nil
}

func (s *Session) fileUploadStart(ctx context.Context, fileType byte, customized []byte, slave byte) (protocol.FileUploadStartResponse, error) {
	payload := protocol.EncodeFileUploadStartRequest(fileType, customized)
	var out protocol.FileUploadStartResponse
	err := fileUploadRetry.Run(ctx, func() error {
		resp, err := s.executeFileUpload(protocol.SubFileUploadStart, payload, slave)
		if err != nil {
			return err
		}
		out, err = protocol.DecodeFileUploadStartResponse(resp)
		return err
	})
	if err != nil {
		return protocol.FileUploadStartResponse{}, fmt.Errorf("session: file upload start: %w", err)
	}
	return out, nil
}

func (s *Session) fileUploadData(ctx context.Context, fileType byte, frameNo uint16, slave byte) (protocol.FileUploadDataResponse, error) {
	payload := protocol.EncodeFileUploadDataRequest(fileType, frameNo)
	var out protocol.FileUploadDataResponse
	err := fileUploadRetry.Run(ctx, func() error {
		resp, err := s.executeFileUpload(protocol.SubFileUploadData, payload, slave)
		if err != nil {
			return err
		}
		out, err = protocol.DecodeFileUploadDataResponse(resp)
		return err
	})
	if err != nil {
		return protocol.FileUploadDataResponse{}, fmt.Errorf("session: file upload data frame %d: %w", frameNo, err)
	}
	return out, nil
}

func (s *Session) fileUploadComplete(ctx context.Context, fileType byte, slave byte) (protocol.FileUploadCompleteResponse, error) {
	payload := protocol.EncodeFileUploadCompleteRequest(fileType)
	var out protocol.FileUploadCompleteResponse
	err := fileUploadRetry.Run(ctx, func() error {
		resp, err := s.executeFileUpload(protocol.SubFileUploadComplete, payload, slave)
		if err != nil {
			return err
		}
		out, err = protocol.DecodeFileUploadCompleteResponse(resp)
		return err
	})
	if err != nil {
		return protocol.FileUploadCompleteResponse{}, fmt.Errorf("session: file upload complete: %w", err)
	}
	return out, nil
}

// executeFileUpload runs one private-frame exchange (the caller already
// holds the gate) and translates the file-upload-specific exception
// mapping: exception 0x80 -> PermissionDenied (non-retried), 0x06 ->
// slave busy (retried by the caller's RetryPolicy), anything else -> a
// generic read failure.
func (s *Session) executeFileUpload(sub byte, payload []byte, slave byte) ([]byte, error) {
	resp, err := s.executeLocked(sub, payload, slave)
	if err != nil {
		if transport.IsPermissionDenied(err) {
			return nil, &PermissionDeniedError{Op: fmt.Sprintf("file upload sub %#x", sub)}
		}
		if transport.IsSlaveBusy(err) || transport.IsTimeout(err) {
			return nil, err
		}
		return nil, &ReadException{Op: fmt.Sprintf("file upload sub %#x", sub), Err: err}
	}
	return resp[1:], nil
}

// fileUploadProgress formats a human-readable progress line for upload
// logging, e.g. "128 B / 300 B".
func fileUploadProgress(received, total uint32) string {
	return fmt.Sprintf("%s / %s", humanize.Bytes(uint64(received)), humanize.Bytes(uint64(total)))
}
