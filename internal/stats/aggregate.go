// Package stats summarizes nginx-rtmp status snapshots for humans.
//
// Summarize reduces a snapshot to per-application and per-stream totals;
// FormatSummary renders them for the probe command, and the watch dashboard
// reads the same structures.
package stats

import (
	"fmt"
	"sort"
	"time"

	"github.com/randomizedcoder/nginx-rtmp-exporter/internal/rtmpstat"
)

// Summary is a reduced view of one snapshot.
type Summary struct {
	NginxVersion string
	RTMPVersion  string
	Uptime       time.Duration
	Accepted     uint64

	BytesIn      uint64
	BytesOut     uint64
	BandwidthIn  uint64
	BandwidthOut uint64

	Applications []ApplicationSummary

	// Totals across applications
	TotalStreams  int
	ActiveStreams int
	Viewers       int
	Relays        int
}

// ApplicationSummary totals one application.
type ApplicationSummary struct {
	Name          string
	Streams       []StreamSummary
	ActiveStreams int
	Viewers       int
	Relays        int
	BandwidthIn   uint64
	BandwidthOut  uint64
}

// StreamSummary describes one live stream.
type StreamSummary struct {
	Application string
	Name        string
	Active      bool
	Publishing  bool
	Viewers     int
	Relays      int
	Uptime      time.Duration

	BandwidthIn    uint64
	BandwidthOut   uint64
	BandwidthVideo uint64
	BandwidthAudio uint64

	// AVSync is nil when no publisher with audio is attached.
	AVSync *int64

	VideoCodec string
	AudioCodec string
	Resolution string
	FrameRate  float64
}

// Summarize reduces a snapshot. Applications keep their upstream order;
// streams are sorted by descending outgoing bandwidth, then name.
func Summarize(snap *rtmpstat.Snapshot) *Summary {
	if snap == nil {
		return &Summary{}
	}

	sum := &Summary{
		NginxVersion: snap.NginxVersion,
		RTMPVersion:  snap.RTMPVersion,
		Uptime:       time.Duration(snap.Uptime) * time.Second,
		Accepted:     snap.Accepted,
		BytesIn:      snap.BytesIn,
		BytesOut:     snap.BytesOut,
		BandwidthIn:  snap.BandwidthIn,
		BandwidthOut: snap.BandwidthOut,
		Applications: make([]ApplicationSummary, 0, len(snap.Applications)),
	}

	for _, app := range snap.Applications {
		as := ApplicationSummary{
			Name:    app.Name,
			Streams: make([]StreamSummary, 0, len(app.Streams)),
		}

		for _, s := range app.Streams {
			ss := summarizeStream(app.Name, s)
			as.Streams = append(as.Streams, ss)
			if ss.Active {
				as.ActiveStreams++
			}
			as.Viewers += ss.Viewers
			as.Relays += ss.Relays
			as.BandwidthIn += ss.BandwidthIn
			as.BandwidthOut += ss.BandwidthOut
		}

		sort.SliceStable(as.Streams, func(i, j int) bool {
			if as.Streams[i].BandwidthOut != as.Streams[j].BandwidthOut {
				return as.Streams[i].BandwidthOut > as.Streams[j].BandwidthOut
			}
			return as.Streams[i].Name < as.Streams[j].Name
		})

		sum.Applications = append(sum.Applications, as)
		sum.TotalStreams += len(as.Streams)
		sum.ActiveStreams += as.ActiveStreams
		sum.Viewers += as.Viewers
		sum.Relays += as.Relays
	}

	return sum
}

func summarizeStream(application string, s rtmpstat.Stream) StreamSummary {
	ss := StreamSummary{
		Application:    application,
		Name:           s.Name,
		Active:         s.IsActive(),
		Uptime:         time.Duration(s.Time) * time.Millisecond,
		BandwidthIn:    s.BandwidthIn,
		BandwidthOut:   s.BandwidthOut,
		BandwidthVideo: s.BandwidthVideo,
		BandwidthAudio: s.BandwidthAudio,
	}

	for _, c := range s.Clients {
		switch {
		case c.IsPublishing():
			ss.Publishing = true
		case c.IsRelay():
			ss.Relays++
		default:
			ss.Viewers++
		}
	}

	if s.BandwidthAudio != 0 {
		if pub, ok := s.Publisher(); ok {
			v := pub.AVSync
			ss.AVSync = &v
		}
	}

	if m := s.Meta; m != nil {
		ss.VideoCodec = m.Video.Codec
		ss.FrameRate = m.Video.FrameRate
		if m.Video.Width > 0 && m.Video.Height > 0 {
			ss.Resolution = fmt.Sprintf("%dx%d", m.Video.Width, m.Video.Height)
		}
		if m.Audio != nil {
			ss.AudioCodec = m.Audio.Codec
		}
	}

	return ss
}
