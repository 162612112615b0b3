package dictionary_test

import (
	"testing/fstest"

	"github.com/jacoelho/dictionary"
)

const (
	exURI  = "urn:example"
	extURI = "urn:example:ext"
)

const exampleYAML = `name: ex:example
version: 1.0.0
imports:
  - uri: http://www.alfresco.org/model/dictionary/1.0
    prefix: d
  - uri: http://www.alfresco.org/model/system/1.0
    prefix: sys
namespaces:
  - uri: urn:example
    prefix: ex
types:
  - name: ex:doc
    parent: sys:base
    properties:
      - name: ex:title
        type: d:text
        mandatory: true
`

const extensionYAML = `name: ext:extension
imports:
  - uri: http://www.alfresco.org/model/dictionary/1.0
    prefix: d
  - uri: urn:example
    prefix: ex
namespaces:
  - uri: urn:example:ext
    prefix: ext
types:
  - name: ext:memo
    parent: ex:doc
    properties:
      - name: ext:body
        type: d:text
`

const exampleXML = `<?xml version="1.0" encoding="UTF-8"?>
<model name="ex:example" xmlns="http://www.alfresco.org/model/dictionary/1.0">
  <imports>
    <import uri="http://www.alfresco.org/model/dictionary/1.0" prefix="d"/>
    <import uri="http://www.alfresco.org/model/system/1.0" prefix="sys"/>
  </imports>
  <namespaces>
    <namespace uri="urn:example" prefix="ex"/>
  </namespaces>
  <types>
    <type name="ex:doc">
      <parent>sys:base</parent>
      <properties>
        <property name="ex:title">
          <type>d:text</type>
        </property>
      </properties>
    </type>
  </types>
</model>
`

func exampleFS() fstest.MapFS {
	return fstest.MapFS{
		"example.yaml":   &fstest.MapFile{Data: []byte(exampleYAML)},
		"extension.yaml": &fstest.MapFile{Data: []byte(extensionYAML)},
		"example.xml":    &fstest.MapFile{Data: []byte(exampleXML)},
	}
}

func ex(local string) dictionary.QName  { return dictionary.NewQName(exURI, local) }
func ext(local string) dictionary.QName { return dictionary.NewQName(extURI, local) }
