package deploy

import (
	"strconv"

	"github.com/orchestrator-tools/deploy/internal/jsonval"
)

func idOf(o *jsonval.Object) (string, bool) {
	v, ok := o.Get("id")
	if !ok {
		return "", false
	}
	return v.AsString()
}

func versionOf(o *jsonval.Object) string {
	v, ok := o.Get("version")
	if !ok {
		return ""
	}
	s, _ := v.AsString()
	return s
}

// numberOf reads a numeric field that may be a JSON number or a numeric
// string, per §4.7's note that application.instances may arrive as either on
// the wire.
func numberOf(o *jsonval.Object, key string) (float64, bool) {
	v, ok := o.Get(key)
	if !ok {
		return 0, false
	}
	if n, ok := v.AsNumber(); ok {
		return n, true
	}
	if s, ok := v.AsString(); ok {
		if n, err := strconv.ParseFloat(s, 64); err == nil {
			return n, true
		}
	}
	return 0, false
}

type task struct {
	appID   string
	state   string
	version string
	healthy bool
}

func tasksOf(o *jsonval.Object) []task {
	v, ok := o.Get("tasks")
	if !ok {
		return nil
	}
	arr, ok := v.AsArray()
	if !ok {
		return nil
	}
	out := make([]task, 0, arr.Len())
	for _, item := range arr.Items() {
		obj, ok := item.AsObject()
		if !ok {
			continue
		}
		out = append(out, task{
			appID:   getString(obj, "appId"),
			state:   getString(obj, "state"),
			version: getString(obj, "version"),
			healthy: isHealthy(obj),
		})
	}
	return out
}

func getString(o *jsonval.Object, key string) string {
	v, ok := o.Get(key)
	if !ok {
		return ""
	}
	s, _ := v.AsString()
	return s
}

// isHealthy reports whether a task is healthy: true unless some
// healthCheckResults entry has alive=false.
func isHealthy(taskObj *jsonval.Object) bool {
	v, ok := taskObj.Get("healthCheckResults")
	if !ok {
		return true
	}
	arr, ok := v.AsArray()
	if !ok {
		return true
	}
	for _, item := range arr.Items() {
		resObj, ok := item.AsObject()
		if !ok {
			continue
		}
		alive, ok := resObj.Get("alive")
		if !ok {
			continue
		}
		if b, ok := alive.AsBool(); ok && !b {
			return false
		}
	}
	return true
}

// expectedInstances returns application.instances if present, else
// observed.instances.
func expectedInstances(app, observed *jsonval.Object) float64 {
	if n, ok := numberOf(app, "instances"); ok {
		return n
	}
	n, _ := numberOf(observed, "instances")
	return n
}

// mergeGroupAndAppID concatenates groupID (ensured a trailing "/") with the
// last "/"-delimited segment of appID.
func mergeGroupAndAppID(groupID, appID string) string {
	newID := groupID
	if len(newID) == 0 || newID[len(newID)-1] != '/' {
		newID += "/"
	}
	idx := lastIndexByte(appID, '/')
	if idx > -1 {
		return newID + appID[idx+1:]
	}
	return newID + appID
}

func lastIndexByte(s string, c byte) int {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == c {
			return i
		}
	}
	return -1
}
