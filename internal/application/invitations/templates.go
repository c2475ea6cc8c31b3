package invitations

import (
	"bytes"
	"fmt"
	"html/template"
	"regexp"
	"sort"
	"strings"

	"guestpass-backend/internal/pkg/apperr"
	"guestpass-backend/internal/pkg/validation"
)

// DefaultTemplate is used when a caller names no template.
const DefaultTemplate = "elegant"

// ErrUnknownTemplate is returned for template names outside the registry.
var ErrUnknownTemplate = apperr.Validation("unknown invitation template")

var hexColor = regexp.MustCompile(`^#(?:[0-9A-Fa-f]{3}|[0-9A-Fa-f]{6})$`)

var funcs = template.FuncMap{
	"eventTime": func(s string) string {
		if t, ok := validation.ParseEventDate(s); ok {
			return t.Format("15:04, 02/01/2006")
		}
		return s
	},
	"shortDate": func(s string) string {
		if t, ok := validation.ParseEventDate(s); ok {
			return t.Format("02/01/2006")
		}
		return s
	},
	// qr blocks hold data: URIs that html/template would otherwise blank out
	"imageSrc": func(s string) template.URL {
		if strings.HasPrefix(s, "data:image/png;base64,") || strings.HasPrefix(s, "https://") || strings.HasPrefix(s, "/") {
			return template.URL(s)
		}
		return ""
	},
	"color": func(s, fallback string) template.CSS {
		if hexColor.MatchString(s) {
			return template.CSS(s)
		}
		return template.CSS(fallback)
	},
}

const layout = `<!DOCTYPE html>
<html lang="vi">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>{{.Event.Title}}</title>
<style>
* { margin: 0; padding: 0; box-sizing: border-box; }
:root { --primary: {{color .Branding.PrimaryColor "#0B2A4A"}}; --accent: {{color .Branding.AccentColor "#1E88E5"}}; }
.program-item { display: flex; padding: 8px 0; }
.program-time { font-weight: bold; min-width: 60px; color: var(--accent); }
.program-text { flex: 1; margin-left: 15px; }
.qr img { width: 150px; height: 150px; }
.rsvp { display: flex; gap: 15px; justify-content: center; margin: 24px 0; }
.rsvp a { padding: 12px 30px; border-radius: 25px; text-decoration: none; font-weight: bold; color: #fff; }
.rsvp .accept { background: #28a745; }
.rsvp .decline { background: #dc3545; }
@media (max-width: 600px) { .rsvp { flex-direction: column; } }
{{template "style" .}}
</style>
</head>
<body>
<div class="card">
  <header class="header">
    <div class="logo"><img src="{{imageSrc .Branding.LogoURL}}" alt="{{.Event.HostOrg}}"></div>
    <h1 class="title">{{.Event.Title}}</h1>
    {{with .Event.Subtitle}}<p class="subtitle">{{.}}</p>{{end}}
  </header>
  <main class="content">
    <p class="greeting">Kính gửi {{with .Guest.Title}}{{.}} {{end}}{{.Guest.Name}},</p>
    <div class="guest">
      <div class="guest-name">{{with .Guest.Title}}{{.}} {{end}}{{.Guest.Name}}</div>
      {{with .Guest.Role}}<div class="guest-role">{{.}}</div>{{end}}
      {{with .Guest.Organization}}<div class="guest-role">{{.}}</div>{{end}}
    </div>
    <section class="details">
      <div class="detail"><h3>Thời gian</h3><p>{{eventTime .Event.DateTime}}</p></div>
      <div class="detail"><h3>Địa điểm</h3><p>{{.Event.Venue.Name}}</p><p>{{.Event.Venue.Address}}</p>
        <p><a href="{{.Event.Venue.MapURL}}">Xem bản đồ</a></p></div>
      <div class="detail"><h3>Tổ chức</h3><p>{{.Event.HostOrg}}</p></div>
    </section>
    <section class="program">
      <h3>Chương trình sự kiện</h3>
      {{range .Event.ProgramOutline}}<div class="program-item"><span class="program-time">{{.Time}}</span><span class="program-text">{{.Item}}</span></div>
      {{end}}
    </section>
    <section class="qr">
      <h3>QR Code Check-in</h3>
      <img src="{{imageSrc .QR.QRURL}}" alt="{{.QR.Value}}">
      <p>Vui lòng mang theo QR code này để check-in tại sự kiện</p>
    </section>
    <p class="deadline"><strong>Hạn phản hồi RSVP: {{.RSVP.Deadline}}</strong></p>
    <div class="rsvp">
      <a class="accept" href="{{.RSVP.AcceptURL}}">Chấp nhận tham gia</a>
      <a class="decline" href="{{.RSVP.DeclineURL}}">Từ chối tham gia</a>
    </div>
  </main>
  <footer class="footer">
    <p><strong>{{.Event.HostOrg}}</strong></p>
    <p>Thiệp mời ID: {{.Meta.InvitationID}}</p>
    <p>Tạo ngày: {{shortDate .Meta.CreatedAt}}</p>
  </footer>
</div>
</body>
</html>
`

var styles = map[string]string{
	"elegant": `
body { font-family: 'Segoe UI', Tahoma, Geneva, Verdana, sans-serif; background: linear-gradient(135deg, var(--primary) 0%, var(--accent) 100%); min-height: 100vh; padding: 20px; }
.card { max-width: 600px; margin: 0 auto; background: #fff; border-radius: 20px; overflow: hidden; box-shadow: 0 20px 40px rgba(0,0,0,0.3); }
.header { background: linear-gradient(135deg, var(--primary) 0%, var(--accent) 100%); color: #fff; padding: 40px 30px; text-align: center; }
.logo img { height: 48px; }
.title { font-size: 28px; margin: 16px 0 8px; }
.content { padding: 30px; }
.greeting { font-size: 18px; margin-bottom: 20px; }
.guest { background: #f8f9fa; border-left: 4px solid var(--accent); padding: 16px; margin-bottom: 20px; }
.guest-name { font-size: 20px; font-weight: bold; color: var(--primary); }
.detail { margin: 12px 0; }
.qr { text-align: center; margin: 30px 0; padding: 20px; background: #f8f9fa; border-radius: 10px; }
.deadline { background: #fff3cd; color: #856404; padding: 10px; border-radius: 5px; text-align: center; }
.footer { background: var(--primary); color: #fff; padding: 20px 30px; text-align: center; }
`,
	"modern": `
body { font-family: 'Inter', 'Helvetica Neue', Arial, sans-serif; background: #f4f6fb; padding: 24px; }
.card { max-width: 640px; margin: 0 auto; background: #fff; border-radius: 12px; box-shadow: 0 8px 24px rgba(11,42,74,0.12); }
.header { padding: 48px 32px 24px; border-bottom: 6px solid var(--accent); }
.logo img { height: 40px; }
.title { font-size: 32px; letter-spacing: -0.02em; color: var(--primary); margin-top: 20px; }
.subtitle { color: var(--accent); text-transform: uppercase; font-size: 13px; letter-spacing: 0.12em; }
.content { padding: 32px; }
.guest { display: grid; gap: 4px; margin: 16px 0 24px; }
.guest-name { font-size: 22px; font-weight: 700; }
.details { display: grid; grid-template-columns: repeat(auto-fit, minmax(160px, 1fr)); gap: 16px; }
.qr { text-align: center; margin: 32px 0; }
.deadline { text-align: center; color: var(--primary); }
.footer { padding: 20px 32px; font-size: 13px; color: #6b7280; }
`,
	"classic": `
body { font-family: Georgia, 'Times New Roman', serif; background: #f5efe0; padding: 24px; }
.card { max-width: 600px; margin: 0 auto; background: #fffdf7; border: 3px double var(--primary); padding: 12px; }
.header { text-align: center; padding: 32px 16px; border-bottom: 1px solid var(--primary); }
.logo img { height: 44px; }
.title { font-size: 30px; font-variant: small-caps; color: var(--primary); margin-top: 12px; }
.subtitle { font-style: italic; }
.content { padding: 24px 16px; text-align: center; }
.greeting { font-style: italic; font-size: 18px; margin-bottom: 16px; }
.guest-name { font-size: 22px; color: var(--primary); }
.program-item { justify-content: center; }
.qr { margin: 28px 0; }
.deadline { font-style: italic; }
.footer { text-align: center; border-top: 1px solid var(--primary); padding: 16px; font-size: 14px; }
`,
	"minimal": `
body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; background: #fff; color: #111; padding: 32px 16px; }
.card { max-width: 560px; margin: 0 auto; }
.header { padding-bottom: 16px; border-bottom: 1px solid #e5e7eb; }
.logo img { height: 32px; }
.title { font-size: 24px; font-weight: 600; margin-top: 12px; }
.subtitle { color: #6b7280; }
.content { padding: 24px 0; }
.guest { margin: 12px 0 20px; }
.guest-name { font-weight: 600; }
.detail h3, .program h3, .qr h3 { font-size: 14px; color: #6b7280; margin-top: 16px; }
.qr { margin: 24px 0; }
.rsvp a { border-radius: 6px; }
.footer { border-top: 1px solid #e5e7eb; padding-top: 12px; font-size: 12px; color: #6b7280; }
`,
}

var registry = buildRegistry()

func buildRegistry() map[string]*template.Template {
	base := template.Must(template.New("invitation").Funcs(funcs).Parse(layout))
	out := make(map[string]*template.Template, len(styles))
	for name, css := range styles {
		t := template.Must(base.Clone())
		template.Must(t.New("style").Parse(css))
		out[name] = t
	}
	return out
}

// Templates lists the registered template names in sorted order.
func Templates() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ResolveTemplate maps an empty name to DefaultTemplate and rejects unknown names.
func ResolveTemplate(name string) (string, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return DefaultTemplate, nil
	}
	if _, ok := registry[name]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownTemplate, name)
	}
	return name, nil
}

// RenderData executes the named template. Output depends only on d.
func RenderData(d *Data, name string) (string, error) {
	name, err := ResolveTemplate(name)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := registry[name].ExecuteTemplate(&buf, "invitation", d); err != nil {
		return "", fmt.Errorf("render %s invitation: %w", name, err)
	}
	return buf.String(), nil
}
