package genesys

import (
	"context"
	stderrors "errors"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/ajitpratap0/tap-purecloud/pkg/connector/base"
	"github.com/ajitpratap0/tap-purecloud/pkg/errors"
	"github.com/ajitpratap0/tap-purecloud/pkg/metrics"
)

// NotifierConfig tunes the notification rendezvous.
type NotifierConfig struct {
	// MaxMessages is how many messages are read before giving up
	MaxMessages int
	// SettleDelay is waited between connecting and triggering
	SettleDelay time.Duration
	// Timeout bounds one Await call (0 = only the caller's context)
	Timeout time.Duration
	// Retry wraps every API call the notifier makes; nil means one attempt
	Retry *base.RetryPolicy
}

// DefaultNotifierConfig returns the defaults used by the tap.
func DefaultNotifierConfig() NotifierConfig {
	return NotifierConfig{
		MaxMessages: 12,
		SettleDelay: 5 * time.Second,
		Timeout:     5 * time.Minute,
	}
}

// Channel is a notification channel.
type Channel struct {
	ID         string     `json:"id"`
	ConnectURI string     `json:"connectUri"`
	Expires    *time.Time `json:"expires,omitempty"`
}

// Event is one message pushed over a channel.
type Event struct {
	TopicName string          `json:"topicName"`
	Version   string          `json:"version"`
	EventBody json.RawMessage `json:"eventBody"`
}

// Notification is the payload of a matching event.
type Notification struct {
	ID           string   `json:"id"`
	QueryState   string   `json:"queryState"`
	DownloadURL  string   `json:"downloadUrl"`
	DownloadURLs []string `json:"downloadUrls"`

	Topic string          `json:"-"`
	Body  json.RawMessage `json:"-"`
}

// URLs returns every result URL the notification carries.
func (n *Notification) URLs() []string {
	urls := make([]string, 0, len(n.DownloadURLs)+1)
	if n.DownloadURL != "" {
		urls = append(urls, n.DownloadURL)
	}
	for _, u := range n.DownloadURLs {
		if u != "" && u != n.DownloadURL {
			urls = append(urls, u)
		}
	}
	return urls
}

type listenResult struct {
	note *Notification
	err  error
}

// Notifier waits for one notification announcing the result of an
// asynchronous query.
type Notifier struct {
	api    Caller
	cfg    NotifierConfig
	dialer *websocket.Dialer
	logger *zap.Logger
	sleep  func(ctx context.Context, d time.Duration) error
}

// NewNotifier creates a notifier calling the API through api.
func NewNotifier(api Caller, cfg NotifierConfig, logger *zap.Logger) *Notifier {
	if cfg.MaxMessages <= 0 {
		cfg.MaxMessages = DefaultNotifierConfig().MaxMessages
	}
	if cfg.Retry == nil {
		cfg.Retry = base.NoRetryPolicy()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Notifier{
		api: api,
		cfg: cfg,
		dialer: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: 45 * time.Second,
		},
		logger: logger.With(zap.String("component", "notifier")),
		sleep:  sleepContext,
	}
}

// Await opens a channel subscribed to topic, calls trigger once the
// listener is running and returns the first event on topic whose body
// carries an id. It fails after MaxMessages other messages or when the
// timeout expires.
func (n *Notifier) Await(ctx context.Context, topic string, trigger func(ctx context.Context) error) (*Notification, error) {
	if n.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, n.cfg.Timeout)
		defer cancel()
	}
	label := topicLabel(topic)

	channel, err := n.createChannel(ctx)
	if err != nil {
		return nil, err
	}
	if err := n.subscribe(ctx, channel.ID, topic); err != nil {
		return nil, err
	}

	conn, resp, err := n.dialer.DialContext(ctx, channel.ConnectURI, nil)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConnection, "failed to connect notification channel").
			WithDetail("channel_id", channel.ID)
	}
	defer conn.Close()

	results := make(chan listenResult, 1)
	go n.listen(conn, topic, results)
	n.logger.Info("listening for notification",
		zap.String("topic", topic),
		zap.String("channel_id", channel.ID))

	if err := n.sleep(ctx, n.cfg.SettleDelay); err != nil {
		return nil, n.waitError(ctx, err)
	}

	timer := metrics.NewTimer(label)
	if err := trigger(ctx); err != nil {
		return nil, err
	}

	select {
	case res := <-results:
		if res.err != nil {
			metrics.NotificationWaits.WithLabelValues(label, metrics.StatusFailure).Observe(timer.Stop().Seconds())
			return nil, res.err
		}
		metrics.NotificationWaits.WithLabelValues(label, metrics.StatusSuccess).Observe(timer.Stop().Seconds())
		n.logger.Info("received notification",
			zap.String("topic", topic),
			zap.String("id", res.note.ID),
			zap.String("query_state", res.note.QueryState))
		return res.note, nil
	case <-ctx.Done():
		metrics.NotificationWaits.WithLabelValues(label, metrics.StatusFailure).Observe(timer.Stop().Seconds())
		return nil, n.waitError(ctx, ctx.Err())
	}
}

func (n *Notifier) waitError(ctx context.Context, err error) error {
	if stderrors.Is(ctx.Err(), context.DeadlineExceeded) {
		return errors.Wrap(err, errors.ErrorTypeTimeout, "timed out waiting for notification")
	}
	return err
}

func (n *Notifier) listen(conn *websocket.Conn, topic string, results chan<- listenResult) {
	for i := 0; i < n.cfg.MaxMessages; i++ {
		_, data, err := conn.ReadMessage()
		if err != nil {
			results <- listenResult{err: errors.Wrap(err, errors.ErrorTypeConnection, "notification channel closed")}
			return
		}

		var event Event
		if err := json.Unmarshal(data, &event); err != nil {
			n.logger.Warn("undecodable notification", zap.Error(err))
			continue
		}
		if event.TopicName != "" && event.TopicName != topic {
			n.logger.Debug("ignoring notification", zap.String("topic", event.TopicName))
			continue
		}

		var note Notification
		if len(event.EventBody) > 0 {
			if err := json.Unmarshal(event.EventBody, &note); err != nil {
				n.logger.Warn("undecodable notification body", zap.Error(err))
				continue
			}
		}
		if note.ID == "" {
			n.logger.Debug("notification without id", zap.String("topic", event.TopicName))
			continue
		}

		note.Topic = event.TopicName
		note.Body = event.EventBody
		results <- listenResult{note: &note}
		return
	}
	results <- listenResult{err: errors.Newf(errors.ErrorTypeTimeout,
		"no matching notification after %d messages", n.cfg.MaxMessages).WithDetail("topic", topic)}
}

func (n *Notifier) createChannel(ctx context.Context) (*Channel, error) {
	var raw []byte
	err := n.cfg.Retry.Execute(ctx, func() error {
		var callErr error
		raw, callErr = n.api.Do(ctx, http.MethodPost, PathChannels, nil, nil)
		return callErr
	})
	if err != nil {
		return nil, err
	}

	var ch Channel
	if err := json.Unmarshal(raw, &ch); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeAPI, "failed to decode notification channel")
	}
	if ch.ID == "" || ch.ConnectURI == "" {
		return nil, errors.New(errors.ErrorTypeAPI, "notification channel has no id or connect uri")
	}
	return &ch, nil
}

func (n *Notifier) subscribe(ctx context.Context, channelID, topic string) error {
	body, err := json.Marshal([]map[string]string{{"id": topic}})
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeInternal, "failed to encode subscription")
	}
	return n.cfg.Retry.Execute(ctx, func() error {
		_, callErr := n.api.Do(ctx, http.MethodPost, SubscriptionsPath(channelID), nil, body)
		return callErr
	})
}

// topicLabel keeps the metric label free of client ids.
func topicLabel(topic string) string {
	if i := strings.LastIndex(topic, "."); i >= 0 {
		return topic[i+1:]
	}
	return topic
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
