package notify

import (
	"strings"
	"testing"
)

func TestTemplatesEmbedCode(t *testing.T) {
	tpl := NewTemplates("Bricola")

	msg, err := tpl.VerifyEmail("a@b.com", "a1b2c3")
	if err != nil {
		t.Fatalf("VerifyEmail failed: %v", err)
	}
	if msg.To != "a@b.com" || msg.Subject != SubjectVerifyEmail {
		t.Fatalf("unexpected envelope: %+v", msg)
	}
	if !strings.Contains(msg.HTML, "a1b2c3") || !strings.Contains(msg.HTML, "Bricola") {
		t.Fatalf("body missing code or brand: %s", msg.HTML)
	}

	msg, err = tpl.ResetPassword("a@b.com", "z9y8x7", "15 minutes")
	if err != nil {
		t.Fatalf("ResetPassword failed: %v", err)
	}
	if msg.Subject != SubjectResetPassword || !strings.Contains(msg.HTML, "15 minutes") {
		t.Fatalf("unexpected reset mail: %+v", msg)
	}

	msg, err = tpl.EmailChange("new@b.com", "q1w2e3")
	if err != nil {
		t.Fatalf("EmailChange failed: %v", err)
	}
	if msg.To != "new@b.com" || !strings.Contains(msg.HTML, "q1w2e3") {
		t.Fatalf("unexpected email change mail: %+v", msg)
	}
}

func TestAccountStatusEscapesMotive(t *testing.T) {
	tpl := NewTemplates("Bricola")

	msg, err := tpl.AccountStatus("a@b.com", false, "<script>x</script>")
	if err != nil {
		t.Fatalf("AccountStatus failed: %v", err)
	}
	if msg.Subject != SubjectAccountDeactivated {
		t.Fatalf("unexpected subject %q", msg.Subject)
	}
	if strings.Contains(msg.HTML, "<script>") {
		t.Fatal("motive must be HTML escaped")
	}

	msg, _ = tpl.AccountStatus("a@b.com", true, "")
	if msg.Subject != SubjectAccountActivated || strings.Contains(msg.HTML, "Reason:") {
		t.Fatalf("unexpected activation mail: %+v", msg)
	}
}
