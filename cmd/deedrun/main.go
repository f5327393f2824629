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

// Package main is a little command-line utility to execute a deed
// pipeline.
//
//	deedrun -f pipeline.yaml -i '{"user":"homer"}'
//
// The store plugin is registered under both "store" and the default
// namespace, so bare effect names like "create" hit the store.  Give
// -db to persist in bbolt instead of memory.  Scripted effects can be
// supplied with -scripts (a YAML map of namespace -> name -> code),
// and -mqtt registers a publish-only "mq" plugin against that broker.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io/ioutil"
	"os"
	"time"

	"github.com/Comcast/deeds/core"
	"github.com/Comcast/deeds/plugins/bolt"
	"github.com/Comcast/deeds/plugins/logger"
	"github.com/Comcast/deeds/plugins/mem"
	mq "github.com/Comcast/deeds/plugins/mqtt"
	"github.com/Comcast/deeds/plugins/script"

	paho "github.com/eclipse/paho.mqtt.golang"
	yamlj "github.com/jsccast/yaml"
	yaml "gopkg.in/yaml.v2"
)

func main() {
	var (
		filename  = flag.String("f", "", "pipeline file (YAML or JSON)")
		inputJS   = flag.String("i", "{}", "input record in JSON")
		dbFile    = flag.String("db", "", "optional bbolt file for the store plugin")
		scripts   = flag.String("scripts", "", "optional YAML of namespace -> effect -> code")
		broker    = flag.String("mqtt", "", "optional MQTT broker URL for the mq plugin")
		topic     = flag.String("topic", "deeds", "default topic for mq.publish")
		output    = flag.String("o", "json", "output format: json or yaml")
		debug     = flag.Bool("v", false, "verbosity")
		tempUUIDs = flag.Bool("uuids", false, "use UUIDs for $tempId")
	)

	flag.Parse()

	if *filename == "" {
		fmt.Fprintf(os.Stderr, "need -f\n")
		os.Exit(1)
	}

	bs, err := ioutil.ReadFile(*filename)
	if err != nil {
		panic(err)
	}
	p, err := core.ReadPipeline(bs)
	if err != nil {
		panic(err)
	}

	var input map[string]interface{}
	if err := json.Unmarshal([]byte(*inputJS), &input); err != nil {
		panic(err)
	}

	r := core.NewRegistry()

	if *dbFile == "" {
		store := mem.NewStore()
		r.Register(store.Plugin("store"))
		r.Register(store.Plugin(core.DefaultNamespace))
	} else {
		store := bolt.NewStore(*dbFile)
		if err := store.Open(); err != nil {
			panic(err)
		}
		defer store.Close()
		store.Debug = *debug
		r.Register(store.Plugin("store"))
		r.Register(store.Plugin(core.DefaultNamespace))
	}

	l := &logger.Logger{Debug: *debug}
	r.Register(l.Plugin("log"))

	if *scripts != "" {
		bs, err := ioutil.ReadFile(*scripts)
		if err != nil {
			panic(err)
		}
		var srcs map[string]map[string]string
		if err := yamlj.Unmarshal(bs, &srcs); err != nil {
			panic(err)
		}
		for namespace, sources := range srcs {
			plugin, err := script.NewPlugin(namespace, sources)
			if err != nil {
				panic(err)
			}
			r.Register(plugin)
		}
	}

	if *broker != "" {
		copts := paho.NewClientOptions().AddBroker(*broker)
		copts = copts.SetClientID("deedrun-" + core.Gensym(8))
		client := paho.NewClient(copts)
		if t := client.Connect(); t.Wait() && t.Error() != nil {
			panic(t.Error())
		}
		defer client.Disconnect(250)
		pub := &mq.Publisher{
			Client:       client,
			DefaultTopic: *topic,
			Timeout:      10 * time.Second,
		}
		r.Register(pub.Plugin("mq"))
	}

	opts := &core.Options{}
	if *tempUUIDs {
		opts.TempId = core.UUIDTempIds()
	}

	e := core.NewExecutor(r)
	executed, err := e.ExecutePipeline(context.Background(), p, input, opts)
	if err != nil {
		if se, is := err.(*core.StepError); is && se.Trail != nil {
			// Best-effort debugging trail.
			if js, err := json.Marshal(se.Trail); err == nil {
				fmt.Fprintf(os.Stderr, "trail: %s\n", js)
			}
		}
		panic(err)
	}

	switch *output {
	case "yaml":
		out, err := yaml.Marshal(executed)
		if err != nil {
			panic(err)
		}
		fmt.Printf("%s", out)
	default:
		out, err := json.MarshalIndent(executed, "", "  ")
		if err != nil {
			panic(err)
		}
		fmt.Printf("%s\n", out)
	}
}
