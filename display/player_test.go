package display

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParsePlayerMessage(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want PlayerMessage
		ok   bool
	}{
		{
			name: "info delivery with video data",
			raw:  `{"event":"infoDelivery","info":{"playerState":1,"currentTime":3.2,"videoData":{"video_id":"abc","title":"x"}}}`,
			want: PlayerMessage{VideoID: "abc", State: 1, HasState: true},
			ok:   true,
		},
		{
			name: "json inside a string",
			raw:  `"{\"event\":\"infoDelivery\",\"info\":{\"videoId\":\"def\"}}"`,
			want: PlayerMessage{VideoID: "def"},
			ok:   true,
		},
		{
			name: "state change",
			raw:  `{"event":"onStateChange","info":0}`,
			want: PlayerMessage{State: 0, HasState: true},
			ok:   true,
		},
		{
			name: "flat shape",
			raw:  `{"videoId":"ghi","playerState":0}`,
			want: PlayerMessage{VideoID: "ghi", State: 0, HasState: true},
			ok:   true,
		},
		{
			name: "numeric info on another event",
			raw:  `{"event":"onPlaybackRateChange","info":1}`,
			ok:   false,
		},
		{
			name: "nothing we know",
			raw:  `{"event":"initialDelivery","info":{"duration":30}}`,
			ok:   false,
		},
		{name: "not json", raw: `hello there`},
		{name: "json array", raw: `[1,2,3]`},
		{name: "string holding garbage", raw: `"nope"`},
		{name: "empty", raw: ``},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := ParsePlayerMessage([]byte(tc.raw))
			assert.Equal(t, tc.ok, ok)
			if tc.ok {
				assert.Equal(t, tc.want, got)
			}
		})
	}
}
