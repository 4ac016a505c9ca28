package chatlog_test

import (
	"context"
	"testing"

	"github.com/deadNightTiger/chatty/chatlog"
	"github.com/deadNightTiger/chatty/testutil"
	"github.com/deadNightTiger/chatty/user"
)

func TestStoreInsertAndRecent(t *testing.T) {
	database := testutil.SetupTestDB(t)
	store := chatlog.NewStore(database)
	ctx := context.Background()

	msgs := []chatlog.Message{
		{Channel: "#storetest", Username: "alice", Text: "first"},
		{Channel: "#storetest", Username: "bob", Text: "second", Action: true},
		{Channel: "#other", Username: "carol", Text: "elsewhere"},
	}
	for _, m := range msgs {
		if err := store.Insert(ctx, m); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}

	got, err := store.Recent(ctx, "#storetest", 10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(got) < 2 {
		t.Fatalf("got %d messages, want at least 2", len(got))
	}
	for _, m := range got {
		if m.Channel != "#storetest" {
			t.Errorf("message from wrong channel: %q", m.Channel)
		}
	}
}

func TestRecorderForwards(t *testing.T) {
	database := testutil.SetupTestDB(t)
	inner := testutil.NewRecordingListener()
	rec := chatlog.NewRecorder(inner, chatlog.NewStore(database))

	u := &user.User{Name: "alice", Channel: "#rectest"}
	rec.OnChannelMessage(u, "hello", false, "")
	if !inner.Has("message #rectest alice: hello") {
		t.Errorf("message not forwarded, events: %v", inner.Events())
	}
	rec.OnChannelJoined("#rectest")
	if !inner.Has("channel-joined #rectest") {
		t.Error("embedded listener not delegated to")
	}

	got, err := chatlog.NewStore(database).Recent(context.Background(), "#rectest", 5)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(got) == 0 || got[0].Text != "hello" {
		t.Errorf("message not persisted: %v", got)
	}
}
