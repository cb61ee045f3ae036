package status

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/onnwee/nodecheck/db"
)

//go:embed templates/page.html.tmpl
var templatesFS embed.FS

var pageTmpl = template.Must(template.ParseFS(templatesFS, "templates/page.html.tmpl"))

// ContentType is sent with every rendered page.
const ContentType = "text/html; charset=UTF-8"

type pageView struct {
	Hostname string
	Time     string
	Platform string
	Uptime   string
	Mount    string
	OK       bool
	Users    []db.UserRecord
	Error    string
	NFSLink  string
}

// Render writes the HTML document for r. All interpolated values are escaped by html/template.
func Render(w io.Writer, r Report, nfsLink string) error {
	v := pageView{
		Hostname: r.Node.Hostname,
		Time:     r.Timestamp,
		Platform: r.Node.Summary(),
		NFSLink:  nfsLink,
	}
	if r.Node.Uptime > 0 {
		v.Uptime = r.Node.Uptime.Truncate(time.Second).String()
	}
	if r.Mount != nil {
		v.Mount = r.Mount.Summary()
	}
	switch o := r.Outcome.(type) {
	case Success:
		v.OK = true
		v.Users = o.Users
	case Failure:
		v.Error = o.Message
	default:
		return fmt.Errorf("render: unexpected outcome %T", r.Outcome)
	}
	return pageTmpl.Execute(w, v)
}
