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

package mqtt

import (
	"context"
	"errors"
	"testing"
	"time"

	. "github.com/Comcast/deeds/util/testutil"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/go-cmp/cmp"
)

type fakeToken struct {
	err     error
	timeout bool
}

func (t *fakeToken) Wait() bool {
	return true
}

func (t *fakeToken) WaitTimeout(time.Duration) bool {
	return !t.timeout
}

func (t *fakeToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}

func (t *fakeToken) Error() error {
	return t.err
}

type published struct {
	topic    string
	qos      byte
	retained bool
	payload  string
}

// fakeClient records Publish calls.  The embedded interface panics on
// anything else, which is what we want.
type fakeClient struct {
	mqtt.Client
	token *fakeToken
	calls []published
}

func (c *fakeClient) Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token {
	c.calls = append(c.calls, published{
		topic:    topic,
		qos:      qos,
		retained: retained,
		payload:  string(payload.([]byte)),
	})
	return c.token
}

func TestPublish(t *testing.T) {
	client := &fakeClient{token: &fakeToken{}}
	p := &Publisher{
		Client:       client,
		DefaultTopic: "deeds/out",
		QoS:          1,
	}
	effects := p.Plugin("mq").Effects

	args := Dwimjs(`{"payload":{"id":"o1"},"retained":true}`).(map[string]interface{})
	x, err := effects["publish"](context.Background(), args, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !cmp.Equal(x, Dwimjs(`{"topic":"deeds/out","bytes":11}`)) {
		t.Fatal(JS(x))
	}

	if len(client.calls) != 1 {
		t.Fatal(len(client.calls))
	}
	call := client.calls[0]
	if call.topic != "deeds/out" || call.qos != 1 || !call.retained {
		t.Fatalf("%#v", call)
	}
	if call.payload != `{"id":"o1"}` {
		t.Fatal(call.payload)
	}
}

func TestPublishOverrides(t *testing.T) {
	client := &fakeClient{token: &fakeToken{}}
	p := &Publisher{
		Client:       client,
		DefaultTopic: "deeds/out",
	}
	effects := p.Plugin("mq").Effects

	args := Dwimjs(`{"payload":1,"topic":"elsewhere","qos":2}`).(map[string]interface{})
	if _, err := effects["publish"](context.Background(), args, nil); err != nil {
		t.Fatal(err)
	}
	call := client.calls[0]
	if call.topic != "elsewhere" || call.qos != 2 {
		t.Fatalf("%#v", call)
	}
}

func TestPublishProtests(t *testing.T) {
	client := &fakeClient{token: &fakeToken{}}
	p := &Publisher{Client: client}
	effects := p.Plugin("mq").Effects

	for _, args := range []string{
		`{"payload":1}`,
		`{"payload":1,"topic":42}`,
		`{"payload":1,"topic":"t","qos":9}`,
		`{"payload":1,"topic":"t","retained":"yes"}`,
	} {
		if _, err := effects["publish"](context.Background(),
			Dwimjs(args).(map[string]interface{}), nil); err == nil {
			t.Fatalf("%s: expected an error", args)
		}
	}
}

func TestPublishTimeout(t *testing.T) {
	p := &Publisher{
		Client:       &fakeClient{token: &fakeToken{timeout: true}},
		DefaultTopic: "t",
		Timeout:      time.Millisecond,
	}
	_, err := p.Plugin("mq").Effects["publish"](context.Background(),
		Dwimjs(`{"payload":1}`).(map[string]interface{}), nil)
	if !errors.Is(err, PublishTimeout) {
		t.Fatalf("got %v", err)
	}
}

func TestPublishTokenError(t *testing.T) {
	boom := errors.New("broker said no")
	p := &Publisher{
		Client:       &fakeClient{token: &fakeToken{err: boom}},
		DefaultTopic: "t",
	}
	_, err := p.Plugin("mq").Effects["publish"](context.Background(),
		Dwimjs(`{"payload":1}`).(map[string]interface{}), nil)
	if !errors.Is(err, boom) {
		t.Fatalf("got %v", err)
	}
}
