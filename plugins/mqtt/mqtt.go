/* Copyright 2019 Comcast Cable Communications Management, LLC
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 * http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package mqtt is a publish-only backend plugin over an MQTT client.
//
// Effect: publish.  Args: "payload" (any tree, sent as JSON), optional
// "topic", "qos", and "retained" overriding the Publisher's defaults.
package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/Comcast/deeds/core"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

var PublishTimeout = errors.New("publish timeout")

// Publisher wraps an MQTT client.  The client is injected (and should
// already be connected); this package never dials.
type Publisher struct {
	Client mqtt.Client

	// DefaultTopic is used when an operation doesn't give one.
	DefaultTopic string

	QoS      byte
	Retained bool

	// Timeout bounds each publish.  Zero means wait forever.
	Timeout time.Duration
}

// Plugin exposes the publish effect under the given namespace.
func (p *Publisher) Plugin(namespace string) *core.Plugin {
	return &core.Plugin{
		Namespace: namespace,
		Effects: map[string]core.Handler{
			"publish": p.publish,
		},
	}
}

func (p *Publisher) publish(ctx context.Context, args map[string]interface{}, c *core.Ctx) (interface{}, error) {
	topic := p.DefaultTopic
	if v, have := args["topic"]; have {
		s, is := v.(string)
		if !is {
			return nil, errors.New(`"topic" isn't a string`)
		}
		topic = s
	}
	if topic == "" {
		return nil, errors.New("no topic")
	}

	qos := p.QoS
	if v, have := args["qos"]; have {
		n, is := v.(float64)
		if !is || n < 0 || 2 < n {
			return nil, errors.New(`bad "qos"`)
		}
		qos = byte(n)
	}

	retained := p.Retained
	if v, have := args["retained"]; have {
		b, is := v.(bool)
		if !is {
			return nil, errors.New(`"retained" isn't a boolean`)
		}
		retained = b
	}

	js, err := json.Marshal(args["payload"])
	if err != nil {
		return nil, err
	}

	token := p.Client.Publish(topic, qos, retained, js)
	if p.Timeout == 0 {
		token.Wait()
	} else if !token.WaitTimeout(p.Timeout) {
		return nil, PublishTimeout
	}
	if err := token.Error(); err != nil {
		return nil, err
	}

	return map[string]interface{}{
		"topic": topic,
		"bytes": float64(len(js)),
	}, nil
}
