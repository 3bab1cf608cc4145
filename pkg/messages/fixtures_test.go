package messages

import "time"

func track(title string, pos, length int) Track {
	return Track{
		Len:   time.Duration(length) * time.Second,
		Pos:   time.Duration(pos) * time.Second,
		Title: title,
		URI:   "https://music.example.com/" + title,
	}
}

func sampleState() PlayerState {
	cur := track("now", 12, 200)
	return PlayerState{
		Bot:     BotInfo{Name: "BotName", Avatar: "Avatar"},
		Paused:  false,
		Mode:    PlayModeLoopAll,
		Current: &cur,
		History: []Track{track("t1", 5, 5), track("t2", 8, 8)},
		Queue:   []Track{track("q1", 0, 180)},
	}
}
