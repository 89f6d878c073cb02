// Package template implements the ${UPPERCASE_KEY} placeholder substitution
// applied to a job's params before dispatch.
package template

import (
	"fmt"
	"os"
	"os/user"
	"runtime"
	"strings"
	"time"

	"github.com/lordgreg/taskcrafter/internal/model"
)

// BuildContext assembles the per-job substitution context: job metadata,
// params/inputs under job_params_<k>/job_input_<k>, host info, and clock
// fields, matching the original templater's context() function.
// job_input_<k> holds the input token as written on the job, not its
// resolved value; resolved values reach the context as job_params_<k>
// once the manager has merged them into the params.
func BuildContext(job *model.Job) map[string]string {
	now := time.Now()

	hostname, _ := os.Hostname()
	username := "unknown"
	if u, err := user.Current(); err == nil {
		username = u.Username
	}
	cwd, _ := os.Getwd()

	ctx := map[string]string{
		"job_id":         job.ID,
		"job_name":       job.Name,
		"job_plugin":     job.Plugin,
		"job_schedule":   job.Schedule,
		"job_on_success": strings.Join(job.OnSuccess, ","),
		"job_on_failure": strings.Join(job.OnFailure, ","),
		"job_on_finish":  strings.Join(job.OnFinish, ","),
		"job_depends_on": strings.Join(job.DependsOn, ","),
		"job_enabled":    fmt.Sprintf("%v", job.Enabled),
		"job_retries":    fmt.Sprintf("%d", job.Retries.Count),
		"job_timeout":    fmt.Sprintf("%d", job.Timeout),
		"current_time":   now.Format(time.RFC3339),
		"os_name":        runtime.GOOS,
		"os_version":     runtime.Version(),
		"os_release":     runtime.GOOS,
		"architecture":   runtime.GOARCH,
		"machine":        runtime.GOARCH,
		"hostname":       hostname,
		"username":       username,
		"date":           now.Format("2006-01-02"),
		"time":           now.Format("15:04:05"),
		"datetime":       now.Format("2006-01-02T15:04:05"),
		"timestamp":      fmt.Sprintf("%d", now.Unix()),
		"cwd":            cwd,
	}

	for k, v := range job.Params {
		ctx[fmt.Sprintf("job_params_%s", k)] = fmt.Sprintf("%v", v)
	}
	for k, v := range job.Input {
		ctx[fmt.Sprintf("job_input_%s", k)] = v
	}

	return ctx
}

// Apply substitutes ${UPPERCASE_KEY} placeholders recursively through a
// param tree (map/slice/string); non-string leaves pass through unchanged.
func Apply(value any, ctx map[string]string) any {
	switch v := value.(type) {
	case string:
		return applyString(v, ctx)
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, val := range v {
			out[k] = Apply(val, ctx)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, val := range v {
			out[i] = Apply(val, ctx)
		}
		return out
	default:
		return value
	}
}

func applyString(s string, ctx map[string]string) string {
	for key, val := range ctx {
		placeholder := "${" + strings.ToUpper(key) + "}"
		s = strings.ReplaceAll(s, placeholder, val)
	}
	return s
}
