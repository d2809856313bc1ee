// Package notify delivers account emails.
//
// # Components
//
//   - [Notifier]: the delivery contract (SMTP, log, no-op implementations).
//   - [Dispatcher]: buffered async relay in front of a Notifier. Callers never
//     wait on delivery and never see its errors; failures are logged and
//     counted, and a full queue either drops or blocks per [DispatcherConfig].
//   - [Templates]: the HTML bodies for verification, reset, email change and
//     account status mails.
//
// # What this package must NOT do
//
//   - Decide when a mail is sent; that belongs to the engine.
//   - Import authcore or any of its internal packages.
package notify
