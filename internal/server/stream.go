package server

import (
	"github.com/luhtfiimanal/seedlink-go/internal/seq"
	"github.com/luhtfiimanal/seedlink-go/internal/store"
	"github.com/luhtfiimanal/seedlink-go/internal/timewindow"
	"github.com/luhtfiimanal/seedlink-go/internal/wire"
)

// streamLoop is §4.I's streaming loop. continuous selects between the END
// behavior (wait for new pushes forever, until shutdown) and the FETCH
// behavior (drain whatever is available once, then return).
//
// The waiter-before-read ordering on every iteration is load-bearing (§9
// Race hazard): it closes the window between "nothing to read" and "a push
// just landed".
func (h *Handler) streamLoop(continuous bool) {
	for {
		waiter := h.store.Notified()
		records := h.store.ReadSince(h.cursor, h.subs)

		for _, r := range records {
			if h.hasWindow && !h.inWindow(r) {
				h.cursor = r.Sequence
				continue
			}
			frame := h.encodeRecordFrame(r)
			if !h.write(frame) {
				return
			}
			if h.metrics != nil {
				h.metrics.FramesSent.WithLabelValues(h.version.String()).Inc()
			}
			h.cursor = r.Sequence
		}

		if !continuous {
			return
		}

		select {
		case <-waiter:
			continue
		case <-h.shutdown:
			return
		}
	}
}

// hostStatsAttrs returns the current host-stats attribute text, or "" if no
// sampler is attached.
func (h *Handler) hostStatsAttrs() string {
	if h.health == nil {
		return ""
	}
	return h.health.CapabilityAttrs()
}

func (h *Handler) inWindow(r store.Record) bool {
	ts, ok := timewindow.ParseMseedBTime(r.Payload)
	if !ok {
		return true
	}
	return h.window.Contains(ts)
}

func (h *Handler) encodeRecordFrame(r store.Record) []byte {
	if h.version == wire.V4 {
		stationID := r.Network + "_" + r.Station
		return wire.WriteV4Frame(wire.FormatMiniSeed2, wire.SubformatData, r.Sequence, stationID, r.Payload)
	}
	frame, _ := wire.WriteV3Frame(r.Sequence, r.Payload)
	return frame
}

// handleInfo dispatches to an XML builder and streams the result as one or
// more payload-bearing frames, then writes the "END\r\n" terminator (§4.I).
// v3 pads each 512-byte chunk with trailing NUL bytes; v4 sends the whole
// document as a single variable-length frame. Sequence 0 tags these frames
// as out-of-band: the ring store never assigns 0 to a real record.
func (h *Handler) handleInfo(level wire.InfoLevel) bool {
	if h.metrics != nil {
		h.metrics.InfoRequests.WithLabelValues(level.String()).Inc()
	}
	xml := h.buildInfoXML(level)

	if h.version == wire.V4 {
		frame := wire.WriteV4Frame(wire.FormatXML, wire.SubformatInfo, seq.Number(0), "", []byte(xml))
		if !h.write(frame) {
			return false
		}
	} else {
		for _, chunk := range chunkPadded([]byte(xml), 512) {
			frame, _ := wire.WriteV3Frame(seq.Number(0), chunk)
			if !h.write(frame) {
				return false
			}
		}
	}

	return h.write(wire.Response{Kind: wire.RespEnd}.ToBytes())
}

func (h *Handler) buildInfoXML(level wire.InfoLevel) string {
	switch level {
	case wire.InfoID:
		return BuildInfoIDXML(h.banner.Software, h.banner.Organization, h.banner.Started)
	case wire.InfoStations:
		return BuildInfoStationsXML(h.store.StationInfo())
	case wire.InfoStreams:
		return BuildInfoStreamsXML(h.store.StreamInfo())
	case wire.InfoConnections:
		return BuildInfoConnectionsXML(h.registry.Snapshot(), FormatConnectedAt)
	case wire.InfoGaps:
		return BuildInfoGapsXML()
	case wire.InfoFormats:
		return BuildInfoFormatsXML()
	case wire.InfoCapabilities:
		return BuildInfoCapabilitiesXML(h.hostStatsAttrs())
	case wire.InfoAll:
		return BuildInfoAllXML(
			BuildInfoIDXML(h.banner.Software, h.banner.Organization, h.banner.Started),
			BuildInfoStationsXML(h.store.StationInfo()),
			BuildInfoStreamsXML(h.store.StreamInfo()),
			BuildInfoConnectionsXML(h.registry.Snapshot(), FormatConnectedAt),
		)
	default:
		return BuildInfoIDXML(h.banner.Software, h.banner.Organization, h.banner.Started)
	}
}

// chunkPadded splits data into size-byte chunks, NUL-padding the final
// chunk so every v3 INFO frame's payload is exactly 512 bytes.
func chunkPadded(data []byte, size int) [][]byte {
	if len(data) == 0 {
		return [][]byte{make([]byte, size)}
	}
	var chunks [][]byte
	for off := 0; off < len(data); off += size {
		end := off + size
		if end > len(data) {
			chunk := make([]byte, size)
			copy(chunk, data[off:])
			chunks = append(chunks, chunk)
			break
		}
		chunks = append(chunks, data[off:end])
	}
	return chunks
}
