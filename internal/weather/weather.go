package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"raspai/internal/commands"
)

const baseURL = "http://api.openweathermap.org/data/2.5/weather"

// Client fetches current conditions from OpenWeatherMap. A client with
// an empty API key reports itself unconfigured and is never queried.
type Client struct {
	http   *http.Client
	apiKey string
}

func NewClient(httpClient *http.Client, apiKey string) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{http: httpClient, apiKey: apiKey}
}

func (c *Client) Configured() bool { return c.apiKey != "" }

type apiResponse struct {
	// cod is a number on success and a quoted string on errors.
	Cod     json.Number `json:"cod"`
	Weather []struct {
		Description string `json:"description"`
	} `json:"weather"`
	Main struct {
		Temp float64 `json:"temp"`
	} `json:"main"`
}

func (c *Client) Current(ctx context.Context, city string) (commands.Report, error) {
	q := url.Values{}
	q.Set("q", city)
	q.Set("appid", c.apiKey)
	q.Set("units", "metric")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return commands.Report{}, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return commands.Report{}, fmt.Errorf("weather request: %w", err)
	}
	defer resp.Body.Close()

	var data apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return commands.Report{}, fmt.Errorf("decode weather response: %w", err)
	}

	if data.Cod.String() != "200" {
		return commands.Report{}, fmt.Errorf("weather api returned cod=%s", data.Cod)
	}
	if len(data.Weather) == 0 {
		return commands.Report{}, fmt.Errorf("weather api returned no conditions")
	}

	return commands.Report{
		Description: data.Weather[0].Description,
		TempCelsius: data.Main.Temp,
	}, nil
}
