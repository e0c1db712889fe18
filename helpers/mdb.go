package helpers

import (
	"reflect"
	"strings"

	"github.com/globalsign/mgo"
	"github.com/globalsign/mgo/bson"
	"github.com/pkg/errors"
	"github.com/wiresbot/wires/cache"
	"github.com/wiresbot/wires/models"
)

var (
	mDbSession  *mgo.Session
	mDbDatabase string
)

// ConnectMDB connects to mongodb and stores the session
func ConnectMDB(url string, database string) {
	var err error

	log := cache.GetLogger()
	log.WithField("module", "mdb").Info("Connecting to " + url)

	mgo.SetDebug(false)

	dialInfo, err := mgo.ParseURL(url)
	if err != nil {
		log.WithField("module", "mdb").Error(err.Error())
		panic(err)
	}

	mDbSession, err = mgo.DialWithInfo(dialInfo)
	if err != nil {
		log.WithField("module", "mdb").Error(err.Error())
		panic(err)
	}

	mDbSession.SetMode(mgo.Primary, false)
	mDbSession.SetSafe(nil)

	mDbDatabase = database

	log.WithField("module", "mdb").Info("Connected!")
}

// GetMDb is a simple getter for the mongodb database.
func GetMDb() *mgo.Database {
	return mDbSession.DB(mDbDatabase)
}

// GetMDbSession is a simple getter for the mongodb session.
func GetMDbSession() *mgo.Session {
	return mDbSession
}

// MDbInsert inserts a record into $collection, assigning it a fresh
// ObjectId if the data's ID field is unset
func MDbInsert(collection models.MongoDbCollection, data interface{}) (rid bson.ObjectId, err error) {
	var recordData reflect.Value
	if reflect.ValueOf(data).Kind() != reflect.Ptr {
		// handle non pointers
		recordData = reflect.New(reflect.TypeOf(data)).Elem()
		recordData.Set(reflect.ValueOf(data))
	} else {
		// handle pointers
		// convert the raw interface data to its actual type
		recordData = reflect.ValueOf(data).Elem()
	}

	// confirm data has an ID field
	idField := recordData.FieldByName("ID")
	if !idField.IsValid() {
		return bson.ObjectId(""), errors.New("invalid data")
	}

	// if the records id field isn't empty, give it an id
	newID := idField.String()
	if newID == "" {
		newID = string(bson.NewObjectId())
		idField.SetString(newID)
	}

	err = GetMDb().C(collection.String()).Insert(recordData.Interface())
	if err != nil {
		return bson.ObjectId(""), err
	}

	return bson.ObjectId(newID), nil
}

// MDbUpdate applies $data to the record with the given id, $data may be a
// full record or a modifier document like bson.M{"$inc": …}
func MDbUpdate(collection models.MongoDbCollection, id bson.ObjectId, data interface{}) (err error) {
	if !id.Valid() {
		return errors.New("invalid id")
	}

	return GetMDb().C(collection.String()).UpdateId(id, data)
}

// MDbUpsert updates the first record matching $selector with $data,
// inserting a new record if none matches
func MDbUpsert(collection models.MongoDbCollection, selector interface{}, data interface{}) (err error) {
	_, err = GetMDb().C(collection.String()).Upsert(selector, data)
	return err
}

// MDbDelete removes the record with the given id
func MDbDelete(collection models.MongoDbCollection, id bson.ObjectId) (err error) {
	if !id.Valid() {
		return errors.New("invalid id")
	}

	return GetMDb().C(collection.String()).RemoveId(id)
}

func MdbCollection(collection models.MongoDbCollection) (query *mgo.Collection) {
	return GetMDb().C(collection.String())
}

func MDbIter(query *mgo.Query) (iter *mgo.Iter) {
	return query.Iter()
}

func MdbOne(query *mgo.Query, object interface{}) (err error) {
	return query.One(object)
}

func MdbCount(collection models.MongoDbCollection, selector interface{}) (count int, err error) {
	return MdbCollection(collection).Find(selector).Count()
}

// Returns true if the given error is a not found error from MongoDB
// includes errors from invalid object IDs
func IsMdbNotFound(err error) (notFound bool) {
	if err != nil {
		if strings.Contains(err.Error(), "not found") ||
			strings.Contains(err.Error(), "ObjectIDs must be exactly 12 bytes long") {
			return true
		}
	}
	return false
}
