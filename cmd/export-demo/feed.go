package main

import (
	"context"

	glog "github.com/goliatone/go-logger/glog"
	"github.com/goliatone/go-users/pkg/types"
	"github.com/google/uuid"
)

// demoActorID attributes every export to the demo service account.
var demoActorID = uuid.NewSHA1(uuid.NameSpaceURL, []byte("urn:export-demo:service")).String()

func demoActor(context.Context) string { return demoActorID }

// logFeed writes export activity records to the demo log.
type logFeed struct {
	logger glog.Logger
}

func (f logFeed) Log(ctx context.Context, record types.ActivityRecord) error {
	glog.Ensure(f.logger).WithContext(ctx).Info("export activity",
		"verb", record.Verb,
		"object_id", record.ObjectID,
		"channel", record.Channel,
		"data", record.Data,
	)
	return nil
}

var _ types.ActivitySink = logFeed{}
