// Package deploy implements the deployer's convergence loop (§4.7): decide
// create vs. update vs. restart against the orchestrator, then poll until the
// new version is live and its instances are healthy, the way the original
// Marathon deployer drove its own reconcile-and-wait cycle.
package deploy

import (
	"context"
	"net/url"
	"strconv"
	"time"

	"k8s.io/utils/ptr"

	"github.com/orchestrator-tools/deploy/internal/diff"
	"github.com/orchestrator-tools/deploy/internal/diffpatch"
	"github.com/orchestrator-tools/deploy/internal/errs"
	"github.com/orchestrator-tools/deploy/internal/jsonval"
	"github.com/orchestrator-tools/deploy/internal/orchestrator"
	"github.com/orchestrator-tools/deploy/internal/printer"
)

// forceGroupDelete is always true: emptying a group before deletion must
// bypass the orchestrator's "group still has members" guard. Modeled as a
// pointer per the optional-scalar convention (A5) rather than a bare
// literal, so a future per-call override is a one-line change.
var forceGroupDelete = ptr.To(true)

const (
	defaultPollInterval = time.Second
	defaultTimeout      = 10 * time.Minute

	taskRunning = "TASK_RUNNING"
)

// Logger is the subset of *slog.Logger the deployer needs, so tests can
// supply a no-op implementation without pulling in log/slog.
type Logger interface {
	Info(msg string, args ...any)
	Error(msg string, args ...any)
}

// Deployer drives applications and groups towards their desired state
// against a single orchestrator.Client.
type Deployer struct {
	client       *orchestrator.Client
	printer      *printer.Printer
	logger       Logger
	pollInterval time.Duration
	timeout      time.Duration
}

// Option configures a Deployer at construction time.
type Option func(*Deployer)

func WithPollInterval(d time.Duration) Option {
	return func(dep *Deployer) { dep.pollInterval = d }
}

// WithTimeout sets the per-application convergence deadline (§4.7 default:
// 10 minutes).
func WithTimeout(d time.Duration) Option {
	return func(dep *Deployer) { dep.timeout = d }
}

func New(client *orchestrator.Client, p *printer.Printer, logger Logger, opts ...Option) *Deployer {
	dep := &Deployer{
		client:       client,
		printer:      p,
		logger:       logger,
		pollInterval: defaultPollInterval,
		timeout:      defaultTimeout,
	}
	for _, opt := range opts {
		opt(dep)
	}
	return dep
}

// Deploy reconciles a single application against the orchestrator: create it
// if absent, otherwise update or restart it, then wait for the resulting
// version to converge and the deployment queue to clear.
func (d *Deployer) Deploy(ctx context.Context, app *jsonval.Object) error {
	id, ok := idOf(app)
	if !ok {
		return errs.Configf("deploy", "application is missing \"id\"")
	}

	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	observed, found, err := d.getApplication(ctx, id)
	if err != nil {
		return err
	}

	var version string
	var expected float64
	var scaleOnly bool

	switch {
	case !found:
		d.printer.Line("creating %s", id)
		expected, _ = numberOf(app, "instances")
		version, err = d.createApplication(ctx, app)
	case diff.IsUpdate(app, observed):
		if patch, derr := diffpatch.Describe(observed, app); derr == nil {
			d.logger.Info("application differs from observed state", "app", id, "merge_patch", string(patch))
		} else {
			d.logger.Error("could not describe application diff", "app", id, "error", derr)
		}
		expected = expectedInstances(app, observed)
		scaleOnly = diff.IsScaleOnlyUpdate(app, observed)
		d.printer.Line("updating %s", id)
		version, err = d.updateApplication(ctx, id, app)
	default:
		expected = expectedInstances(app, observed)
		d.printer.Line("restarting %s", id)
		version, err = d.restartApplication(ctx, id)
	}
	if err != nil {
		return err
	}

	if err := d.waitForVersion(ctx, id, version); err != nil {
		return err
	}
	if err := d.waitForInstances(ctx, id, version, expected, scaleOnly); err != nil {
		return err
	}
	return d.waitWhileAffectedByDeployment(ctx, id)
}

// DeployGroup reconciles a group document. Per the original deployer, group
// deploys are single-level: members of "apps" are deployed directly, never
// recursed into as nested groups.
func (d *Deployer) DeployGroup(ctx context.Context, doc *jsonval.Object) error {
	appsVal, ok := doc.Get("apps")
	if !ok {
		return d.Deploy(ctx, doc)
	}
	arr, ok := appsVal.AsArray()
	if !ok {
		return d.Deploy(ctx, doc)
	}

	groupID, _ := idOf(doc)
	for _, item := range arr.Items() {
		appObj, ok := item.AsObject()
		if !ok {
			return errs.Configf("deploy-group", "group member is not an object")
		}
		appID, _ := idOf(appObj)
		merged := appObj.Clone()
		merged.Set("id", jsonval.String(mergeGroupAndAppID(groupID, appID)))
		if err := d.Deploy(ctx, merged); err != nil {
			return err
		}
	}
	return nil
}

// DeleteGroup removes a group and every nested subgroup, deepest first: each
// group is first emptied of its apps (PUT with force=true) and then deleted.
// The emptied/deleted trace is printed on return, also when a step fails.
func (d *Deployer) DeleteGroup(ctx context.Context, name string) error {
	resp, err := d.client.Get(ctx, "/v2/groups/"+name)
	if err != nil {
		return err
	}
	if resp.StatusCode != 200 {
		return &errs.HTTPError{Method: "GET", Path: "/v2/groups/" + name, StatusCode: resp.StatusCode, Body: string(resp.Body)}
	}

	root, err := parseObject(resp.Body)
	if err != nil {
		return errs.NewConfigError("delete-group", err)
	}
	groupsVal, ok := root.Get("groups")
	if !ok {
		return errs.Configf("delete-group", "no \"groups\" key found in group %q response", name)
	}

	toDelete := []string{name}
	stack := [][]*jsonval.Value{itemsOf(groupsVal)}
	for len(stack) > 0 {
		groups := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, gv := range groups {
			gObj, ok := gv.AsObject()
			if !ok {
				continue
			}
			if childGroupsVal, ok := gObj.Get("groups"); ok {
				gid, _ := idOf(gObj)
				toDelete = append(toDelete, gid)
				stack = append(stack, itemsOf(childGroupsVal))
			}
		}
	}

	rows := make([]printer.GroupDeleteRow, 0, len(toDelete)*2)
	defer func() { d.printer.RenderGroupDelete(rows) }()
	for i := len(toDelete) - 1; i >= 0; i-- {
		id := toDelete[i]

		emptied := jsonval.NewObject()
		emptied.Set("id", jsonval.String(id))
		emptied.Set("apps", jsonval.FromArray(jsonval.NewArray()))
		query := url.Values{"force": {strconv.FormatBool(ptr.Deref(forceGroupDelete, true))}}
		putResp, err := d.client.Put(ctx, "/v2/groups", jsonval.FromObject(emptied), query)
		if err != nil {
			return err
		}
		if putResp.StatusCode != 200 {
			return &errs.HTTPError{Method: "PUT", Path: "/v2/groups", StatusCode: putResp.StatusCode, Body: string(putResp.Body)}
		}
		rows = append(rows, printer.GroupDeleteRow{GroupID: id, Step: "emptied"})

		groupPath := "/v2/groups/" + id
		if hasPrefix(id, "/") {
			groupPath = "/v2/groups" + id
		}
		delResp, err := d.client.Delete(ctx, groupPath)
		if err != nil {
			return err
		}
		if delResp.StatusCode != 200 {
			return &errs.HTTPError{Method: "DELETE", Path: groupPath, StatusCode: delResp.StatusCode, Body: string(delResp.Body)}
		}
		rows = append(rows, printer.GroupDeleteRow{GroupID: id, Step: "deleted"})
	}

	return nil
}

func itemsOf(v *jsonval.Value) []*jsonval.Value {
	arr, ok := v.AsArray()
	if !ok {
		return nil
	}
	return arr.Items()
}

func parseObject(body []byte) (*jsonval.Object, error) {
	v, err := jsonval.Parse(body)
	if err != nil {
		return nil, err
	}
	obj, ok := v.AsObject()
	if !ok {
		return nil, errs.Configf("parse", "expected a JSON object response")
	}
	return obj, nil
}

func (d *Deployer) getApplication(ctx context.Context, id string) (*jsonval.Object, bool, error) {
	resp, err := d.client.Get(ctx, "/v2/apps/"+id)
	if err != nil {
		return nil, false, err
	}
	if resp.StatusCode == 404 {
		return nil, false, nil
	}
	if resp.StatusCode != 200 {
		return nil, false, &errs.HTTPError{Method: "GET", Path: "/v2/apps/" + id, StatusCode: resp.StatusCode, Body: string(resp.Body)}
	}
	root, err := parseObject(resp.Body)
	if err != nil {
		return nil, false, errs.NewConfigError("get-application", err)
	}
	appVal, ok := root.Get("app")
	if !ok {
		return nil, false, errs.Configf("get-application", "response for %q is missing \"app\"", id)
	}
	appObj, ok := appVal.AsObject()
	if !ok {
		return nil, false, errs.Configf("get-application", "\"app\" is not an object")
	}
	return appObj, true, nil
}

func (d *Deployer) createApplication(ctx context.Context, app *jsonval.Object) (string, error) {
	resp, err := d.client.Post(ctx, "/v2/apps", jsonval.FromObject(app))
	if err != nil {
		return "", err
	}
	return deploymentVersion(resp, "POST", "/v2/apps")
}

func (d *Deployer) updateApplication(ctx context.Context, id string, app *jsonval.Object) (string, error) {
	path := "/v2/apps/" + id
	if hasPrefix(id, "/") {
		path = "/v2/apps" + id
	}
	resp, err := d.client.Put(ctx, path, jsonval.FromObject(app), nil)
	if err != nil {
		return "", err
	}
	return deploymentVersion(resp, "PUT", path)
}

func (d *Deployer) restartApplication(ctx context.Context, id string) (string, error) {
	path := "/v2/apps/" + id + "/restart"
	if hasPrefix(id, "/") {
		path = "/v2/apps" + id + "/restart"
	}
	resp, err := d.client.Post(ctx, path, nil)
	if err != nil {
		return "", err
	}
	return deploymentVersion(resp, "POST", path)
}

func deploymentVersion(resp *orchestrator.Response, method, path string) (string, error) {
	if resp.StatusCode != 200 && resp.StatusCode != 201 {
		return "", &errs.HTTPError{Method: method, Path: path, StatusCode: resp.StatusCode, Body: string(resp.Body)}
	}
	obj, err := parseObject(resp.Body)
	if err != nil {
		return "", errs.NewConfigError("deploy", err)
	}
	v, ok := obj.Get("version")
	if !ok {
		return "", errs.Configf("deploy", "%s %s response is missing \"version\"", method, path)
	}
	s, ok := v.AsString()
	if !ok {
		return "", errs.Configf("deploy", "%s %s \"version\" is not a string", method, path)
	}
	return s, nil
}

// waitForVersion busy-loops with a 1s sleep (§4.7) until the orchestrator
// reports the application at or past targetVersion, comparing the RFC3339
// timestamps lexicographically.
func (d *Deployer) waitForVersion(ctx context.Context, id, targetVersion string) error {
	for {
		observed, found, err := d.getApplication(ctx, id)
		if err != nil {
			return err
		}
		if found && versionOf(observed) >= targetVersion {
			return nil
		}
		if err := d.sleep(ctx, id); err != nil {
			return err
		}
	}
}

// waitForInstances polls until exactly expected tasks belonging to id are
// TASK_RUNNING, healthy, and (unless scaleOnly) at or past targetVersion.
func (d *Deployer) waitForInstances(ctx context.Context, id, targetVersion string, expected float64, scaleOnly bool) error {
	for {
		observed, found, err := d.getApplication(ctx, id)
		if err != nil {
			return err
		}
		if found {
			tasks := tasksOf(observed)
			if float64(len(tasks)) == expected {
				running := 0
				for _, t := range tasks {
					versionOK := scaleOnly || t.version >= targetVersion
					if hasPrefix(t.appID, id) && t.state == taskRunning && t.healthy && versionOK {
						running++
					}
				}
				if float64(running) == expected {
					return nil
				}
			}
		}
		if err := d.sleep(ctx, id); err != nil {
			return err
		}
	}
}

// waitWhileAffectedByDeployment polls /v2/deployments until no in-flight
// deployment still lists id among its affected applications.
func (d *Deployer) waitWhileAffectedByDeployment(ctx context.Context, id string) error {
	for {
		resp, err := d.client.Get(ctx, "/v2/deployments")
		if err != nil {
			return err
		}
		if resp.StatusCode != 200 {
			return &errs.HTTPError{Method: "GET", Path: "/v2/deployments", StatusCode: resp.StatusCode, Body: string(resp.Body)}
		}
		v, err := jsonval.Parse(resp.Body)
		if err != nil {
			return errs.NewConfigError("wait-for-deployment", err)
		}
		arr, ok := v.AsArray()
		if !ok {
			return errs.Configf("wait-for-deployment", "/v2/deployments response is not an array")
		}

		affected := false
		for _, dv := range arr.Items() {
			dObj, ok := dv.AsObject()
			if !ok {
				continue
			}
			affectedVal, ok := dObj.Get("affectedApps")
			if !ok {
				continue
			}
			affectedArr, ok := affectedVal.AsArray()
			if !ok {
				continue
			}
			for _, av := range affectedArr.Items() {
				if s, ok := av.AsString(); ok && s == id {
					affected = true
					break
				}
			}
			if affected {
				break
			}
		}
		if !affected {
			return nil
		}
		if err := d.sleep(ctx, id); err != nil {
			return err
		}
	}
}

func (d *Deployer) sleep(ctx context.Context, id string) error {
	t := time.NewTimer(d.pollInterval)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return &errs.TimeoutError{AppID: id, After: d.timeout.String()}
	case <-t.C:
		return nil
	}
}

func hasPrefix(s, prefix string) bool {
	return len(s) >= len(prefix) && s[:len(prefix)] == prefix
}
