package server

import (
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Namespace path after prefix, nil when empty
func requestNamespace(clientRequest *http.Request, prefix string) (namespace []string) {
	raw := strings.Trim(strings.TrimPrefix(clientRequest.URL.Path, prefix), "/")
	if raw == "" {
		return
	}
	namespace = strings.Split(raw, "/")
	return
}

// Reads starttime/endtime. Start defaults to one minute ago (also for unparsable relative values), end to now.
func requestWindow(clientRequest *http.Request) (start, end time.Time, err error) {
	now := time.Now()

	rawStartTime := clientRequest.FormValue("starttime")
	switch {
	case rawStartTime == "":
		start = now.Add(-1 * time.Minute)
	case rawStartTime[0] == '-' || rawStartTime[0] == '+':
		dur, parseErr := time.ParseDuration(rawStartTime)
		if parseErr != nil {
			start = now.Add(-1 * time.Minute)
		} else {
			start = now.Add(dur)
		}
	default:
		start, err = time.Parse(time.RFC3339Nano, rawStartTime)
		if err != nil {
			err = fmt.Errorf("invalid starttime: %v", err)
			return
		}
	}

	rawEndTime := clientRequest.FormValue("endtime")
	if rawEndTime == "now" || rawEndTime == "" {
		end = now
	} else {
		end, err = time.Parse(time.RFC3339Nano, rawEndTime)
		if err != nil {
			err = fmt.Errorf("invalid endtime: %v", err)
			return
		}
	}

	if start.After(end) {
		err = fmt.Errorf("starttime is after endtime")
	}
	return
}
