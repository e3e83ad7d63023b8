// Package rtmpstat models the nginx-rtmp-module statistics page.
//
// A Snapshot is one decoded poll of the XML status endpoint (usually served
// by the `rtmp_stat all;` directive at /stat). Optional elements are pointers:
// a nil pointer means the upstream server did not report the element.
package rtmpstat

import "encoding/xml"

// Snapshot is the root <rtmp> element.
type Snapshot struct {
	XMLName      xml.Name      `xml:"rtmp"`
	NginxVersion string        `xml:"nginx_version"`
	RTMPVersion  string        `xml:"nginx_rtmp_version"`
	Compiler     string        `xml:"compiler"`
	Built        string        `xml:"built"`
	PID          uint64        `xml:"pid"`
	Uptime       uint64        `xml:"uptime"`
	Accepted     uint64        `xml:"naccepted"`
	BandwidthIn  uint64        `xml:"bw_in"`
	BytesIn      uint64        `xml:"bytes_in"`
	BandwidthOut uint64        `xml:"bw_out"`
	BytesOut     uint64        `xml:"bytes_out"`
	Applications []Application `xml:"server>application"`
}

// Application is an <application> block. Only live streams are reported.
type Application struct {
	Name    string   `xml:"name"`
	Streams []Stream `xml:"live>stream"`
}

// Stream is a live <stream> with its connected clients.
type Stream struct {
	Name           string      `xml:"name"`
	Time           uint64      `xml:"time"`
	BandwidthIn    uint64      `xml:"bw_in"`
	BytesIn        uint64      `xml:"bytes_in"`
	BandwidthOut   uint64      `xml:"bw_out"`
	BytesOut       uint64      `xml:"bytes_out"`
	BandwidthAudio uint64      `xml:"bw_audio"`
	BandwidthVideo uint64      `xml:"bw_video"`
	Clients        []Client    `xml:"client"`
	Meta           *StreamMeta `xml:"meta"`
}

// Client is a single connection attached to a stream.
type Client struct {
	ID           uint64    `xml:"id"`
	Address      *string   `xml:"address"`
	Time         uint64    `xml:"time"`
	FlashVersion *string   `xml:"flashver"`
	PageURL      *string   `xml:"pageurl"`
	SWFURL       *string   `xml:"swfurl"`
	Dropped      uint64    `xml:"dropped"`
	AVSync       int64     `xml:"avsync"`
	Timestamp    int64     `xml:"timestamp"`
	Publishing   *struct{} `xml:"publishing"`
	Active       *struct{} `xml:"active"`
}

// StreamMeta is the codec metadata reported once a publisher has sent it.
type StreamMeta struct {
	Video VideoMeta  `xml:"video"`
	Audio *AudioMeta `xml:"audio"`
}

// VideoMeta describes the published video track.
type VideoMeta struct {
	Width     uint64  `xml:"width"`
	Height    uint64  `xml:"height"`
	FrameRate float64 `xml:"frame_rate"`
	Codec     string  `xml:"codec"`
	Profile   string  `xml:"profile"`
	Compat    uint64  `xml:"compat"`
	Level     float64 `xml:"level"`
}

// AudioMeta describes the published audio track.
type AudioMeta struct {
	Codec      string `xml:"codec"`
	Profile    string `xml:"profile"`
	Channels   uint64 `xml:"channels"`
	SampleRate uint64 `xml:"sample_rate"`
}

// IsPublishing reports whether the client carries the <publishing/> flag.
func (c Client) IsPublishing() bool {
	return c.Publishing != nil
}

// IsActive reports whether the client carries the <active/> flag.
func (c Client) IsActive() bool {
	return c.Active != nil
}

// Publisher returns the first publishing client of the stream.
func (s Stream) Publisher() (Client, bool) {
	for _, c := range s.Clients {
		if c.IsPublishing() {
			return c, true
		}
	}
	return Client{}, false
}

// IsActive reports whether the stream is a real broadcast: codec metadata
// has been received and at least one client is not an internal local relay.
func (s Stream) IsActive() bool {
	if s.Meta == nil {
		return false
	}
	for _, c := range s.Clients {
		if !c.IsLocalRelay() {
			return true
		}
	}
	return false
}

// ActiveStreams counts the application's active streams.
func (a Application) ActiveStreams() int {
	n := 0
	for _, s := range a.Streams {
		if s.IsActive() {
			n++
		}
	}
	return n
}

// normalize drops empty optional descriptors: nginx-rtmp emits an empty
// <audio></audio> element for video-only publishers.
func (snap *Snapshot) normalize() {
	for i := range snap.Applications {
		app := &snap.Applications[i]
		for j := range app.Streams {
			m := app.Streams[j].Meta
			if m != nil && m.Audio != nil && *m.Audio == (AudioMeta{}) {
				m.Audio = nil
			}
		}
	}
}
