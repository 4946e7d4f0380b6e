// Copyright 2017 Google Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package mutex serves the association table on App Engine.  The object is
// read from MUTEX_OBJECT with the bearer token of each request.
package mutex

import (
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"google.golang.org/appengine"

	"github.com/googlegenomics/mutex/api"
	"github.com/googlegenomics/mutex/internal/source/gcs"
)

func init() {
	bucket, object, err := gcs.ParseObject(os.Getenv("MUTEX_OBJECT"))
	if err != nil {
		log.Fatalf("Invalid MUTEX_OBJECT: %v", err)
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), api.RequestID())
	api.NewServer(gcs.NewSourceFunc(newAppEngineClient, bucket, object)).Export(router)
	http.Handle("/", router)
}

func newAppEngineClient(req *http.Request) (gcs.Client, error) {
	return gcs.NewClientFromBearerToken(req.WithContext(appengine.NewContext(req)))
}
