package main

import (
	"fmt"
	"io"

	"github.com/aymenrakics/Secure-Messaging-System/internal/smsg"
)

func printUsers(w io.Writer, users []smsg.User, current string) {
	if len(users) == 0 {
		fmt.Fprintln(w, "No users registered.")
		return
	}
	for i, u := range users {
		marker := ""
		if u.Username == current {
			marker = " (you)"
		}
		fmt.Fprintf(w, "%3d. %s%s\n", i+1, u.Username, marker)
	}
}

func printInbox(w io.Writer, entries []smsg.InboxEntry) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "No messages.")
		return
	}

	unread := 0
	for _, e := range entries {
		if !e.Read {
			unread++
		}
	}
	fmt.Fprintf(w, "You have %d message(s) (%d unread)\n\n", len(entries), unread)

	for i, e := range entries {
		flag := " "
		if !e.Read {
			flag = "*"
		}
		fmt.Fprintf(w, "%3d. %s %-20s %s  #%d\n",
			i+1, flag, e.SenderName, e.SentAt.Local().Format("2006-01-02 15:04:05"), e.ID)
	}
}

func printStats(w io.Writer, s smsg.Stats) {
	fmt.Fprintf(w, "Received: %d\n", s.Received)
	fmt.Fprintf(w, "Read:     %d\n", s.Read)
	fmt.Fprintf(w, "Unread:   %d\n", s.Unread)
	if s.Received > 0 {
		fmt.Fprintf(w, "Read rate: %.1f%%\n", s.ReadRate())
	}
}
