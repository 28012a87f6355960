// Package appium speaks the W3C WebDriver wire protocol to an Appium server.
// It is the only package that knows HTTP paths and payload shapes; everything
// above it works with sessions, locators and element handles.
package appium

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// W3C WebDriver element identifier key (standard constant)
const w3cElementKey = "element-6066-11e4-a52e-4f735466cecf"

// W3C error codes the harness cares about. Anything else is terminal.
const (
	CodeNoSuchElement     = "no such element"
	CodeStaleElement      = "stale element reference"
	CodeNoSuchWindow      = "no such window"
	CodeNoSuchContext     = "no such context"
	CodeInvalidSession    = "invalid session id"
	CodeSessionNotCreated = "session not created"
	CodeUnknownError      = "unknown error"
)

// Error is a wire-level WebDriver error: the W3C error code plus the
// server's message.
type Error struct {
	Code       string // W3C error string: "no such element", "stale element reference", ...
	Message    string
	HTTPStatus int
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Message == "" {
		return e.Code
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Rect is an element or window rectangle in screen points.
type Rect struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Center returns the midpoint of the rectangle.
func (r Rect) Center() (int, int) {
	return r.X + r.Width/2, r.Y + r.Height/2
}

// Client handles HTTP communication with the Appium server.
type Client struct {
	serverURL string
	sessionID string
	client    *http.Client
	screenW   int
	screenH   int
}

// NewClient creates a client for the given server URL.
func NewClient(serverURL string) *Client {
	return &Client{
		serverURL: strings.TrimSuffix(serverURL, "/"),
		client: &http.Client{
			Timeout: 5 * time.Minute, // Long timeout for install/screenshot
		},
	}
}

// Status checks that the server is up and ready to create sessions.
func (c *Client) Status() error {
	resp, err := c.get("/status")
	if err != nil {
		return err
	}
	if value, ok := resp["value"].(map[string]interface{}); ok {
		if ready, ok := value["ready"].(bool); ok && !ready {
			return &Error{Code: CodeSessionNotCreated, Message: "server is not ready"}
		}
	}
	return nil
}

// CreateSession opens a new session with the given W3C capabilities and
// remembers its ID. The app under test is launched (or resumed, per noReset)
// by the server as a side effect.
func (c *Client) CreateSession(capabilities map[string]interface{}) (string, error) {
	body := map[string]interface{}{
		"capabilities": map[string]interface{}{
			"alwaysMatch": capabilities,
		},
	}

	resp, err := c.post("/session", body)
	if err != nil {
		return "", err
	}

	value, ok := resp["value"].(map[string]interface{})
	if !ok {
		return "", fmt.Errorf("invalid session response")
	}

	c.sessionID, _ = value["sessionId"].(string)
	if c.sessionID == "" {
		return "", fmt.Errorf("no session ID in response")
	}

	c.fetchScreenSize()

	// XCUITest settings: don't wait for idle or animation cool-off between
	// commands; the resolver does its own explicit polling.
	c.SetSettings(map[string]interface{}{
		"waitForIdleTimeout":      0,
		"animationCoolOffTimeout": 0,
	})

	return c.sessionID, nil
}

// DeleteSession closes the session. No-op when no session is open.
func (c *Client) DeleteSession() error {
	if c.sessionID == "" {
		return nil
	}
	_, err := c.delete(c.sessionPath())
	c.sessionID = ""
	return err
}

// SessionID returns the current session ID, empty when disconnected.
func (c *Client) SessionID() string {
	return c.sessionID
}

// ScreenSize returns the screen dimensions captured at session start.
func (c *Client) ScreenSize() (int, int) {
	return c.screenW, c.screenH
}

func (c *Client) fetchScreenSize() {
	resp, err := c.get(c.sessionPath() + "/window/rect")
	if err != nil {
		return
	}
	if value, ok := resp["value"].(map[string]interface{}); ok {
		if w, ok := value["width"].(float64); ok {
			c.screenW = int(w)
		}
		if h, ok := value["height"].(float64); ok {
			c.screenH = int(h)
		}
	}
}

// Element Operations

// FindElement finds a single element. A missing element surfaces as an
// *Error with code "no such element".
func (c *Client) FindElement(strategy, value string) (string, error) {
	body := map[string]interface{}{
		"using": strategy,
		"value": value,
	}

	resp, err := c.post(c.sessionPath()+"/element", body)
	if err != nil {
		return "", err
	}

	elemValue, ok := resp["value"].(map[string]interface{})
	if !ok {
		return "", &Error{Code: CodeNoSuchElement, Message: "empty find response"}
	}

	id := extractElementID(elemValue)
	if id == "" {
		return "", &Error{Code: CodeNoSuchElement, Message: "no element ID in response"}
	}
	return id, nil
}

// FindElements finds all matching elements in backend document order.
// No match is an empty slice, not an error.
func (c *Client) FindElements(strategy, value string) ([]string, error) {
	body := map[string]interface{}{
		"using": strategy,
		"value": value,
	}

	resp, err := c.post(c.sessionPath()+"/elements", body)
	if err != nil {
		return nil, err
	}

	values, ok := resp["value"].([]interface{})
	if !ok {
		return nil, nil
	}

	var ids []string
	for _, v := range values {
		if elem, ok := v.(map[string]interface{}); ok {
			if id := extractElementID(elem); id != "" {
				ids = append(ids, id)
			}
		}
	}
	return ids, nil
}

// ClickElement clicks an element using the WebDriver standard endpoint.
func (c *Client) ClickElement(elementID string) error {
	_, err := c.post(c.elementPath(elementID)+"/click", nil)
	return err
}

// ClearElement clears an element's text.
func (c *Client) ClearElement(elementID string) error {
	_, err := c.post(c.elementPath(elementID)+"/clear", nil)
	return err
}

// TypeElement sends text to an element.
func (c *Client) TypeElement(elementID, text string) error {
	chars := strings.Split(text, "")
	_, err := c.post(c.elementPath(elementID)+"/value", map[string]interface{}{
		"text":  text,
		"value": chars,
	})
	return err
}

// GetElementText returns an element's text.
func (c *Client) GetElementText(elementID string) (string, error) {
	resp, err := c.get(c.elementPath(elementID) + "/text")
	if err != nil {
		return "", err
	}
	text, _ := resp["value"].(string)
	return text, nil
}

// GetElementAttribute returns an element's attribute value.
func (c *Client) GetElementAttribute(elementID, name string) (string, error) {
	resp, err := c.get(c.elementPath(elementID) + "/attribute/" + name)
	if err != nil {
		return "", err
	}
	value, _ := resp["value"].(string)
	return value, nil
}

// GetElementRect returns an element's position and size.
func (c *Client) GetElementRect(elementID string) (Rect, error) {
	resp, err := c.get(c.elementPath(elementID) + "/rect")
	if err != nil {
		return Rect{}, err
	}
	value, ok := resp["value"].(map[string]interface{})
	if !ok {
		return Rect{}, fmt.Errorf("invalid rect response")
	}

	xf, _ := value["x"].(float64)
	yf, _ := value["y"].(float64)
	wf, _ := value["width"].(float64)
	hf, _ := value["height"].(float64)
	return Rect{X: int(xf), Y: int(yf), Width: int(wf), Height: int(hf)}, nil
}

// IsElementDisplayed checks if an element is visible.
func (c *Client) IsElementDisplayed(elementID string) (bool, error) {
	resp, err := c.get(c.elementPath(elementID) + "/displayed")
	if err != nil {
		return false, err
	}
	displayed, _ := resp["value"].(bool)
	return displayed, nil
}

// IsElementEnabled checks if an element is enabled.
func (c *Client) IsElementEnabled(elementID string) (bool, error) {
	resp, err := c.get(c.elementPath(elementID) + "/enabled")
	if err != nil {
		return false, err
	}
	enabled, _ := resp["value"].(bool)
	return enabled, nil
}

// Touch/Gesture Operations (W3C Actions)

func (c *Client) performTouchAction(actions []map[string]interface{}) error {
	payload := []map[string]interface{}{
		{
			"type":       "pointer",
			"id":         "finger1",
			"parameters": map[string]interface{}{"pointerType": "touch"},
			"actions":    actions,
		},
	}
	_, err := c.post(c.sessionPath()+"/actions", map[string]interface{}{"actions": payload})
	return err
}

// Tap performs a tap at coordinates using W3C touch actions.
func (c *Client) Tap(x, y int) error {
	return c.performTouchAction([]map[string]interface{}{
		{"type": "pointerMove", "duration": 0, "x": x, "y": y, "origin": "viewport"},
		{"type": "pointerDown", "button": 0},
		{"type": "pause", "duration": 50},
		{"type": "pointerUp", "button": 0},
	})
}

// Swipe performs a swipe gesture between two points.
func (c *Client) Swipe(startX, startY, endX, endY, durationMs int) error {
	return c.performTouchAction([]map[string]interface{}{
		{"type": "pointerMove", "duration": 0, "x": startX, "y": startY},
		{"type": "pointerDown", "button": 0},
		{"type": "pointerMove", "duration": durationMs, "x": endX, "y": endY},
		{"type": "pointerUp", "button": 0},
	})
}

// App Management

// ActivateApp brings an app to the foreground, launching it if needed.
func (c *Client) ActivateApp(bundleID string) error {
	_, err := c.post(c.sessionPath()+"/appium/device/activate_app", map[string]interface{}{
		"bundleId": bundleID,
	})
	return err
}

// TerminateApp stops an app.
func (c *Client) TerminateApp(bundleID string) error {
	_, err := c.post(c.sessionPath()+"/appium/device/terminate_app", map[string]interface{}{
		"bundleId": bundleID,
	})
	return err
}

// SetAppearance switches the system appearance ("light" or "dark").
func (c *Client) SetAppearance(style string) error {
	_, err := c.ExecuteMobile("setAppearance", map[string]interface{}{
		"style": style,
	})
	return err
}

// Screen Operations

// Screenshot returns a full-screen screenshot as PNG bytes.
func (c *Client) Screenshot() ([]byte, error) {
	resp, err := c.get(c.sessionPath() + "/screenshot")
	if err != nil {
		return nil, err
	}
	encoded, ok := resp["value"].(string)
	if !ok {
		return nil, fmt.Errorf("invalid screenshot response")
	}
	return base64.StdEncoding.DecodeString(encoded)
}

// ElementScreenshot returns a screenshot cropped to one element.
func (c *Client) ElementScreenshot(elementID string) ([]byte, error) {
	resp, err := c.get(c.elementPath(elementID) + "/screenshot")
	if err != nil {
		return nil, err
	}
	encoded, ok := resp["value"].(string)
	if !ok {
		return nil, fmt.Errorf("invalid screenshot response")
	}
	return base64.StdEncoding.DecodeString(encoded)
}

// Source returns the page source XML.
func (c *Client) Source() (string, error) {
	resp, err := c.get(c.sessionPath() + "/source")
	if err != nil {
		return "", err
	}
	source, _ := resp["value"].(string)
	return source, nil
}

// SetSettings updates driver settings.
func (c *Client) SetSettings(settings map[string]interface{}) error {
	_, err := c.post(c.sessionPath()+"/appium/settings", map[string]interface{}{
		"settings": settings,
	})
	return err
}

// ExecuteMobile executes a mobile: command.
func (c *Client) ExecuteMobile(command string, args map[string]interface{}) (interface{}, error) {
	resp, err := c.post(c.sessionPath()+"/execute/sync", map[string]interface{}{
		"script": "mobile: " + command,
		"args":   []interface{}{args},
	})
	if err != nil {
		return nil, err
	}
	return resp["value"], nil
}

// HTTP Helpers

func (c *Client) sessionPath() string {
	return "/session/" + c.sessionID
}

func (c *Client) elementPath(elementID string) string {
	return c.sessionPath() + "/element/" + elementID
}

func (c *Client) get(path string) (map[string]interface{}, error) {
	return c.request("GET", path, nil)
}

func (c *Client) post(path string, body interface{}) (map[string]interface{}, error) {
	return c.request("POST", path, body)
}

func (c *Client) delete(path string) (map[string]interface{}, error) {
	return c.request("DELETE", path, nil)
}

func (c *Client) request(method, path string, body interface{}) (map[string]interface{}, error) {
	url := c.serverURL + path

	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequest(method, url, bodyReader)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var result map[string]interface{}
	if err := json.Unmarshal(respBody, &result); err != nil {
		if resp.StatusCode >= 400 {
			return nil, &Error{
				Code:       CodeUnknownError,
				Message:    strings.TrimSpace(string(respBody)),
				HTTPStatus: resp.StatusCode,
			}
		}
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	// W3C error shape: {"value": {"error": "...", "message": "..."}}
	if errValue, ok := result["value"].(map[string]interface{}); ok {
		if errCode, ok := errValue["error"].(string); ok {
			message, _ := errValue["message"].(string)
			return nil, &Error{
				Code:       errCode,
				Message:    message,
				HTTPStatus: resp.StatusCode,
			}
		}
	}

	return result, nil
}

func extractElementID(value map[string]interface{}) string {
	// W3C format
	if id, ok := value[w3cElementKey].(string); ok {
		return id
	}
	// Legacy format
	if id, ok := value["ELEMENT"].(string); ok {
		return id
	}
	return ""
}
